package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/service"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGiftRouter(giftSvc *service.GiftService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewGiftHandler(giftSvc, logger.NewNop())
	r.POST("/api/v1/gifts/redeem", h.RedeemGift)
	return r
}

func redeemBody(giftID, accountID uuid.UUID, email string) *bytes.Buffer {
	return bytes.NewBufferString(fmt.Sprintf(
		`{"giftId":%q,"accountId":%q,"email":%q}`, giftID, accountID, email))
}

func TestRedeemGift_Success(t *testing.T) {
	acc := &domain.Account{ID: uuid.New(), Email: "friend@example.com"}
	gift := &domain.GiftSubscription{
		ID:             uuid.New(),
		RecipientEmail: "friend@example.com",
		Tier:           domain.SubscriptionTierMonthly,
		Status:         domain.GiftStatusPending,
	}
	svc := service.NewGiftService(newMemGiftRepo(gift), newMemAccountRepo(acc), nil, testMetrics(), logger.NewNop())
	router := setupGiftRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/gifts/redeem", redeemBody(gift.ID, acc.ID, acc.Email))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp RedeemGiftResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestRedeemGift_NotFoundIs404(t *testing.T) {
	acc := &domain.Account{ID: uuid.New(), Email: "friend@example.com"}
	svc := service.NewGiftService(newMemGiftRepo(), newMemAccountRepo(acc), nil, testMetrics(), logger.NewNop())
	router := setupGiftRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/gifts/redeem", redeemBody(uuid.New(), acc.ID, acc.Email))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrorCodeNotFound)
}

func TestRedeemGift_AlreadyRedeemedIs400(t *testing.T) {
	acc := &domain.Account{ID: uuid.New(), Email: "friend@example.com"}
	gift := &domain.GiftSubscription{
		ID:             uuid.New(),
		RecipientEmail: "friend@example.com",
		Tier:           domain.SubscriptionTierMonthly,
		Status:         domain.GiftStatusRedeemed,
	}
	svc := service.NewGiftService(newMemGiftRepo(gift), newMemAccountRepo(acc), nil, testMetrics(), logger.NewNop())
	router := setupGiftRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/gifts/redeem", redeemBody(gift.ID, acc.ID, acc.Email))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrorCodeAlreadyRedeemed)
}

func TestRedeemGift_EmailMismatchIs403(t *testing.T) {
	acc := &domain.Account{ID: uuid.New(), Email: "other@example.com"}
	gift := &domain.GiftSubscription{
		ID:             uuid.New(),
		RecipientEmail: "friend@example.com",
		Tier:           domain.SubscriptionTierMonthly,
		Status:         domain.GiftStatusPending,
	}
	svc := service.NewGiftService(newMemGiftRepo(gift), newMemAccountRepo(acc), nil, testMetrics(), logger.NewNop())
	router := setupGiftRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/gifts/redeem", redeemBody(gift.ID, acc.ID, acc.Email))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrorCodeEmailMismatch)
}

func TestRedeemGift_MalformedBodyIs400(t *testing.T) {
	svc := service.NewGiftService(newMemGiftRepo(), newMemAccountRepo(), nil, testMetrics(), logger.NewNop())
	router := setupGiftRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/gifts/redeem", bytes.NewBufferString(`{"giftId":"not-a-uuid"}`))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
