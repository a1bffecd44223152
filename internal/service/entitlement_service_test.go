package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntitlementService(repo *fakeAccountRepo, now time.Time) *EntitlementService {
	svc := NewEntitlementService(repo, testMetrics(), domain.TrialDays, logger.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestCheck_StampsTrialStartOnFirstCheck(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	acc := leaderAccount()
	repo := newFakeAccountRepo(acc)
	svc := newEntitlementService(repo, now)

	ent, err := svc.Check(context.Background(), acc.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusTrialing, ent.Status)
	assert.Equal(t, domain.TrialDays, ent.TrialDaysRemaining)
	assert.True(t, ent.HasActiveAccess)
	stamped, ok := repo.trialStarts[acc.ID]
	require.True(t, ok)
	assert.True(t, stamped.Equal(now))
}

func TestCheck_DoesNotRestampTrialStart(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	start := now.Add(-5 * 24 * time.Hour)
	acc := leaderAccount()
	acc.TrialStart = &start
	repo := newFakeAccountRepo(acc)
	svc := newEntitlementService(repo, now)

	ent, err := svc.Check(context.Background(), acc.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.TrialDays-5, ent.TrialDaysRemaining)
	assert.Empty(t, repo.trialStarts)
}

func TestCheck_StampFailureStillAnswers(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	acc := leaderAccount()
	repo := newFakeAccountRepo(acc)
	repo.setTrialErr = errors.New("connection refused")
	svc := newEntitlementService(repo, now)

	ent, err := svc.Check(context.Background(), acc.ID)

	require.NoError(t, err)
	assert.True(t, ent.HasActiveAccess)
	assert.Equal(t, domain.TrialDays, ent.TrialDaysRemaining)
}

func TestCheck_ExpiredTrialDeniesAccess(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	start := now.Add(-15 * 24 * time.Hour)
	acc := leaderAccount()
	acc.TrialStart = &start
	svc := newEntitlementService(newFakeAccountRepo(acc), now)

	ent, err := svc.Check(context.Background(), acc.ID)

	require.NoError(t, err)
	assert.Equal(t, 0, ent.TrialDaysRemaining)
	assert.False(t, ent.HasActiveAccess)
}

func TestCheck_PastDueKeepsAccess(t *testing.T) {
	acc := leaderAccount()
	acc.SubscriptionStatus = domain.SubscriptionStatusPastDue
	acc.SubscriptionTier = domain.SubscriptionTierMonthly
	svc := newEntitlementService(newFakeAccountRepo(acc), time.Now())

	ent, err := svc.Check(context.Background(), acc.ID)

	require.NoError(t, err)
	assert.True(t, ent.HasActiveAccess)
	assert.Equal(t, domain.SubscriptionTierMonthly, ent.Tier)
}

func TestCheck_UnknownAccount(t *testing.T) {
	svc := newEntitlementService(newFakeAccountRepo(), time.Now())

	_, err := svc.Check(context.Background(), uuid.New())

	require.ErrorIs(t, err, domain.ErrNotFound)
}
