package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/service"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setupWebhookRouter(verifier *stubVerifier, gateway *stubGateway, accountRepo *memAccountRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewWebhookService(verifier, gateway, accountRepo, newMemGiftRepo(), nil, testMetrics(), "price_annual", 5000, logger.NewNop())
	r := gin.New()
	h := NewWebhookHandler(svc, logger.NewNop())
	r.POST("/webhooks/stripe", h.HandleStripeWebhook)
	return r
}

func postWebhook(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	router.ServeHTTP(w, req)
	return w
}

func TestHandleStripeWebhook_BadSignatureIs400(t *testing.T) {
	verifier := &stubVerifier{err: domain.ErrWebhookValidationFailed}
	router := setupWebhookRouter(verifier, &stubGateway{}, newMemAccountRepo())

	w := postWebhook(router)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleStripeWebhook_AppliedEventIs200(t *testing.T) {
	acc := &domain.Account{ID: uuid.New(), Email: "a@example.com"}
	verifier := &stubVerifier{event: domain.SubscriptionUpdatedEvent{SubscriptionRef: "sub_1"}}
	gateway := &stubGateway{sub: domain.GatewaySubscription{
		Ref:       "sub_1",
		Status:    "active",
		AccountID: acc.ID.String(),
	}}
	router := setupWebhookRouter(verifier, gateway, newMemAccountRepo(acc))

	w := postWebhook(router)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandleStripeWebhook_UnattributableEventIs200(t *testing.T) {
	verifier := &stubVerifier{event: domain.CheckoutCompletedEvent{SessionRef: "cs_1"}}
	router := setupWebhookRouter(verifier, &stubGateway{}, newMemAccountRepo())

	w := postWebhook(router)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandleStripeWebhook_GatewayFailureIs500(t *testing.T) {
	verifier := &stubVerifier{event: domain.SubscriptionUpdatedEvent{SubscriptionRef: "sub_1"}}
	gateway := &stubGateway{err: domain.NewUpstreamError("stripe", "get subscription", errors.New("timeout"))}
	router := setupWebhookRouter(verifier, gateway, newMemAccountRepo())

	w := postWebhook(router)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleStripeWebhook_IgnoredEventIs200(t *testing.T) {
	verifier := &stubVerifier{event: domain.IgnoredEvent{Type: "charge.refunded"}}
	router := setupWebhookRouter(verifier, &stubGateway{}, newMemAccountRepo())

	w := postWebhook(router)

	require.Equal(t, http.StatusOK, w.Code)
}
