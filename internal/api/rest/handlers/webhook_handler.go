package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/service"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/Dhoini/Entitlement-service/pkg/res"

	"github.com/gin-gonic/gin"
)

// WebhookHandler обработчик вебхуков платежного шлюза
type WebhookHandler struct {
	webhookService *service.WebhookService
	log            *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(webhookService *service.WebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		log:            log,
	}
}

// HandleStripeWebhook принимает событие Stripe.
// Контракт статусов: 200 - событие применено или осознанно пропущено,
// 400 - подпись не прошла (шлюз не повторяет доставку),
// 500 - внутренняя ошибка (шлюз доставит событие повторно).
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Errorw("Failed to read webhook body", "error", err)
		c.JSON(http.StatusBadRequest, res.ErrorResponse{Error: "failed to read webhook body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")

	if err := h.webhookService.ProcessWebhook(c.Request.Context(), payload, signature); err != nil {
		if errors.Is(err, domain.ErrWebhookValidationFailed) {
			c.JSON(http.StatusBadRequest, res.ErrorResponse{Error: "webhook signature verification failed"})
			return
		}
		h.log.Errorw("Webhook processing failed", "error", err)
		c.JSON(http.StatusInternalServerError, res.ErrorResponse{Error: "webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
