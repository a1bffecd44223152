package handlers

import (
	"net/http"

	"github.com/Dhoini/Entitlement-service/internal/service"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/Dhoini/Entitlement-service/pkg/req"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RedeemGiftRequest тело запроса на активацию подарка
type RedeemGiftRequest struct {
	GiftID    string `json:"giftId" validate:"required,uuid"`
	AccountID string `json:"accountId" validate:"required,uuid"`
	Email     string `json:"email" validate:"required,email"`
}

// RedeemGiftResponse тело успешного ответа на активацию подарка
type RedeemGiftResponse struct {
	Success bool `json:"success"`
}

// GiftHandler обработчик подарочных подписок
type GiftHandler struct {
	giftService *service.GiftService
	log         *logger.Logger
}

// NewGiftHandler создает новый обработчик подарков
func NewGiftHandler(giftService *service.GiftService, log *logger.Logger) *GiftHandler {
	return &GiftHandler{
		giftService: giftService,
		log:         log,
	}
}

// RedeemGift активирует подарок для аккаунта
func (h *GiftHandler) RedeemGift(c *gin.Context) {
	body, err := req.HandleBody[RedeemGiftRequest](c.Writer, c.Request, h.log)
	if err != nil {
		c.Abort()
		return
	}

	giftID, _ := uuid.Parse(body.GiftID)
	accountID, _ := uuid.Parse(body.AccountID)

	if _, err := h.giftService.Redeem(c.Request.Context(), giftID, accountID, body.Email); err != nil {
		status, resp := mapError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, RedeemGiftResponse{Success: true})
}
