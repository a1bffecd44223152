package handlers

import (
	"errors"
	"net/http"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/pkg/res"
)

// mapError переводит доменную ошибку в HTTP статус и тело ответа.
// Порядок проверок важен: специфичные ошибки идут до общих категорий.
func mapError(err error) (int, res.ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrEmailMismatch):
		return http.StatusForbidden, res.ErrorResponse{
			Error:     "gift is addressed to a different email",
			ErrorCode: domain.ErrorCodeEmailMismatch,
		}
	case errors.Is(err, domain.ErrAlreadyRedeemed):
		return http.StatusBadRequest, res.ErrorResponse{
			Error:     "gift has already been redeemed",
			ErrorCode: domain.ErrorCodeAlreadyRedeemed,
		}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, res.ErrorResponse{
			Error:     "record not found",
			ErrorCode: domain.ErrorCodeNotFound,
		}
	case errors.Is(err, domain.ErrChildLimitReached):
		return http.StatusBadRequest, res.ErrorResponse{
			Error:     "managed child limit reached",
			ErrorCode: domain.ErrorCodeValidation,
		}
	case errors.Is(err, domain.ErrSlugExhausted):
		return http.StatusInternalServerError, res.ErrorResponse{
			Error:     "could not allocate a unique slug",
			ErrorCode: domain.ErrorCodeSlugExhausted,
		}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, res.ErrorResponse{
			Error:     err.Error(),
			ErrorCode: domain.ErrorCodeValidation,
		}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, res.ErrorResponse{
			Error:     "unauthenticated",
			ErrorCode: "AuthError",
		}
	default:
		// Upstream и persistence ошибки не раскрываются наружу
		return http.StatusInternalServerError, res.ErrorResponse{
			Error: "internal server error",
		}
	}
}
