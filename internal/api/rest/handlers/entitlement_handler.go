package handlers

import (
	"net/http"

	"github.com/Dhoini/Entitlement-service/internal/api/rest/middleware"
	"github.com/Dhoini/Entitlement-service/internal/service"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/Dhoini/Entitlement-service/pkg/res"

	"github.com/gin-gonic/gin"
)

// EntitlementHandler обработчик проверки доступа
type EntitlementHandler struct {
	entitlementService *service.EntitlementService
	log                *logger.Logger
}

// NewEntitlementHandler создает новый обработчик проверки доступа
func NewEntitlementHandler(entitlementService *service.EntitlementService, log *logger.Logger) *EntitlementHandler {
	return &EntitlementHandler{
		entitlementService: entitlementService,
		log:                log,
	}
}

// GetEntitlement возвращает решение о доступе для аутентифицированного аккаунта
func (h *EntitlementHandler) GetEntitlement(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, res.ErrorResponse{Error: "unauthenticated", ErrorCode: "AuthError"})
		return
	}

	ent, err := h.entitlementService.Check(c.Request.Context(), accountID)
	if err != nil {
		status, resp := mapError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, ent)
}
