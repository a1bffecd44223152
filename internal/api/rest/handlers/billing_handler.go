package handlers

import (
	"net/http"

	"github.com/Dhoini/Entitlement-service/internal/api/rest/middleware"
	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/service"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/Dhoini/Entitlement-service/pkg/req"
	"github.com/Dhoini/Entitlement-service/pkg/res"

	"github.com/gin-gonic/gin"
)

// CreateCheckoutRequest тело запроса на создание checkout-сессии.
// RecipientEmail заполняется только для подарочной покупки.
type CreateCheckoutRequest struct {
	Tier           string `json:"tier" validate:"required,oneof=monthly annual"`
	RecipientEmail string `json:"recipientEmail,omitempty" validate:"omitempty,email"`
}

// CheckoutSessionResponse тело ответа с URL сессии
type CheckoutSessionResponse struct {
	URL string `json:"url"`
}

// BillingHandler обработчик исходящих операций биллинга
type BillingHandler struct {
	billingService *service.BillingService
	log            *logger.Logger
}

// NewBillingHandler создает новый обработчик биллинга
func NewBillingHandler(billingService *service.BillingService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		log:            log,
	}
}

// CreateCheckout создает checkout-сессию подписки или подарка
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, res.ErrorResponse{Error: "unauthenticated", ErrorCode: "AuthError"})
		return
	}

	body, err := req.HandleBody[CreateCheckoutRequest](c.Writer, c.Request, h.log)
	if err != nil {
		c.Abort()
		return
	}

	tier := domain.SubscriptionTier(body.Tier)

	var url string
	if body.RecipientEmail != "" {
		url, err = h.billingService.CreateGiftCheckout(c.Request.Context(), accountID, body.RecipientEmail, tier)
	} else {
		url, err = h.billingService.CreateCheckout(c.Request.Context(), accountID, tier)
	}
	if err != nil {
		status, resp := mapError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, CheckoutSessionResponse{URL: url})
}

// CreatePortal создает сессию портала самообслуживания биллинга
func (h *BillingHandler) CreatePortal(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, res.ErrorResponse{Error: "unauthenticated", ErrorCode: "AuthError"})
		return
	}

	url, err := h.billingService.CreatePortal(c.Request.Context(), accountID)
	if err != nil {
		status, resp := mapError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, CheckoutSessionResponse{URL: url})
}
