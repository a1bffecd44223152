package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/repository"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGiftService(giftRepo *fakeGiftRepo, accountRepo *fakeAccountRepo, publisher *fakePublisher, now time.Time) *GiftService {
	svc := NewGiftService(giftRepo, accountRepo, publisher, testMetrics(), logger.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func pendingGift(recipientEmail string, tier domain.SubscriptionTier) *domain.GiftSubscription {
	return &domain.GiftSubscription{
		ID:                 uuid.New(),
		PurchaserAccountID: uuid.New(),
		RecipientEmail:     recipientEmail,
		Tier:               tier,
		Status:             domain.GiftStatusPending,
		CheckoutSessionRef: "cs_gift",
	}
}

func TestRedeem_AnnualGrantsYearOfAccess(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	acc := &domain.Account{
		ID:                 uuid.New(),
		Email:              "friend@example.com",
		SubscriptionStatus: domain.SubscriptionStatusExpired,
	}
	gift := pendingGift("friend@example.com", domain.SubscriptionTierAnnual)
	accountRepo := newFakeAccountRepo(acc)
	publisher := &fakePublisher{}
	svc := newGiftService(newFakeGiftRepo(gift), accountRepo, publisher, now)

	result, err := svc.Redeem(context.Background(), gift.ID, acc.ID, acc.Email)

	require.NoError(t, err)
	assert.Equal(t, domain.GiftStatusRedeemed, result.Status)
	require.NotNil(t, result.RedeemedByAccountID)
	assert.Equal(t, acc.ID, *result.RedeemedByAccountID)

	require.Len(t, accountRepo.billingUpdates, 1)
	upd := accountRepo.billingUpdates[0]
	assert.Equal(t, domain.SubscriptionStatusActive, upd.Status)
	require.NotNil(t, upd.Tier)
	assert.Equal(t, domain.SubscriptionTierAnnual, *upd.Tier)
	require.NotNil(t, upd.CurrentPeriodEnd)
	assert.True(t, upd.CurrentPeriodEnd.Equal(now.Add(365*24*time.Hour)))

	require.Len(t, publisher.gifts, 1)
	assert.Equal(t, gift.ID.String(), publisher.gifts[0])
}

func TestRedeem_MonthlyGrantsThirtyDays(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	acc := &domain.Account{ID: uuid.New(), Email: "friend@example.com"}
	gift := pendingGift("friend@example.com", domain.SubscriptionTierMonthly)
	accountRepo := newFakeAccountRepo(acc)
	svc := newGiftService(newFakeGiftRepo(gift), accountRepo, &fakePublisher{}, now)

	_, err := svc.Redeem(context.Background(), gift.ID, acc.ID, acc.Email)

	require.NoError(t, err)
	require.Len(t, accountRepo.billingUpdates, 1)
	require.NotNil(t, accountRepo.billingUpdates[0].CurrentPeriodEnd)
	assert.True(t, accountRepo.billingUpdates[0].CurrentPeriodEnd.Equal(now.Add(30*24*time.Hour)))
}

func TestRedeem_EmailComparisonIgnoresCase(t *testing.T) {
	acc := &domain.Account{ID: uuid.New(), Email: "Friend@Example.COM"}
	gift := pendingGift("friend@example.com", domain.SubscriptionTierMonthly)
	svc := newGiftService(newFakeGiftRepo(gift), newFakeAccountRepo(acc), &fakePublisher{}, time.Now())

	_, err := svc.Redeem(context.Background(), gift.ID, acc.ID, acc.Email)

	require.NoError(t, err)
}

func TestRedeem_UsesCallerEmailNotStoredAccountEmail(t *testing.T) {
	// Адрес аккаунта мог устареть; решает подтвержденный адрес из запроса
	acc := &domain.Account{ID: uuid.New(), Email: "old@example.com"}
	gift := pendingGift("friend@example.com", domain.SubscriptionTierMonthly)
	accountRepo := newFakeAccountRepo(acc)
	svc := newGiftService(newFakeGiftRepo(gift), accountRepo, &fakePublisher{}, time.Now())

	_, err := svc.Redeem(context.Background(), gift.ID, acc.ID, "friend@example.com")

	require.NoError(t, err)
	assert.Len(t, accountRepo.billingUpdates, 1)
}

func TestRedeem_EmailMismatch(t *testing.T) {
	acc := &domain.Account{ID: uuid.New(), Email: "someoneelse@example.com"}
	gift := pendingGift("friend@example.com", domain.SubscriptionTierMonthly)
	accountRepo := newFakeAccountRepo(acc)
	svc := newGiftService(newFakeGiftRepo(gift), accountRepo, &fakePublisher{}, time.Now())

	_, err := svc.Redeem(context.Background(), gift.ID, acc.ID, acc.Email)

	require.ErrorIs(t, err, domain.ErrEmailMismatch)
	assert.Empty(t, accountRepo.billingUpdates)
}

func TestRedeem_GiftNotFound(t *testing.T) {
	acc := &domain.Account{ID: uuid.New(), Email: "friend@example.com"}
	svc := newGiftService(newFakeGiftRepo(), newFakeAccountRepo(acc), &fakePublisher{}, time.Now())

	_, err := svc.Redeem(context.Background(), uuid.New(), acc.ID, acc.Email)

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedeem_SecondAttemptFails(t *testing.T) {
	acc := &domain.Account{ID: uuid.New(), Email: "friend@example.com"}
	gift := pendingGift("friend@example.com", domain.SubscriptionTierMonthly)
	accountRepo := newFakeAccountRepo(acc)
	svc := newGiftService(newFakeGiftRepo(gift), accountRepo, &fakePublisher{}, time.Now())

	_, err := svc.Redeem(context.Background(), gift.ID, acc.ID, acc.Email)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), gift.ID, acc.ID, acc.Email)
	require.ErrorIs(t, err, domain.ErrAlreadyRedeemed)
	// Грант записан ровно один раз
	assert.Len(t, accountRepo.billingUpdates, 1)
}

func TestRedeem_ConcurrentLoserGetsAlreadyRedeemed(t *testing.T) {
	// Статус pending при чтении, но условное обновление уже проиграно
	acc := &domain.Account{ID: uuid.New(), Email: "friend@example.com"}
	gift := pendingGift("friend@example.com", domain.SubscriptionTierMonthly)
	giftRepo := newFakeGiftRepo(gift)
	giftRepo.markErr = repository.ErrAlreadyRedeemed
	accountRepo := newFakeAccountRepo(acc)
	svc := newGiftService(giftRepo, accountRepo, &fakePublisher{}, time.Now())

	_, err := svc.Redeem(context.Background(), gift.ID, acc.ID, acc.Email)

	require.ErrorIs(t, err, domain.ErrAlreadyRedeemed)
	assert.Empty(t, accountRepo.billingUpdates)
}

func TestRedeem_GiftOverridesExistingSubscription(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	tier := domain.SubscriptionTierAnnual
	acc := &domain.Account{
		ID:                 uuid.New(),
		Email:              "friend@example.com",
		SubscriptionStatus: domain.SubscriptionStatusActive,
		SubscriptionTier:   tier,
	}
	gift := pendingGift("friend@example.com", domain.SubscriptionTierMonthly)
	accountRepo := newFakeAccountRepo(acc)
	svc := newGiftService(newFakeGiftRepo(gift), accountRepo, &fakePublisher{}, now)

	_, err := svc.Redeem(context.Background(), gift.ID, acc.ID, acc.Email)

	require.NoError(t, err)
	require.Len(t, accountRepo.billingUpdates, 1)
	require.NotNil(t, accountRepo.billingUpdates[0].Tier)
	assert.Equal(t, domain.SubscriptionTierMonthly, *accountRepo.billingUpdates[0].Tier)
}
