package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Dhoini/Entitlement-service/internal/domain"
)

func trialAccount(start *time.Time) domain.Account {
	return domain.Account{
		SubscriptionStatus: domain.SubscriptionStatusTrialing,
		TrialStart:         start,
	}
}

func TestCalculateTrialWithoutStart(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ent := Calculate(trialAccount(nil), now, domain.TrialDays)

	assert.Equal(t, domain.TrialDays, ent.TrialDaysRemaining)
	assert.True(t, ent.HasActiveAccess)
	assert.Equal(t, domain.SubscriptionStatusTrialing, ent.Status)
}

func TestCalculateTrialCountdown(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		now           time.Time
		wantRemaining int
		wantAccess    bool
	}{
		{
			name:          "first day",
			now:           start.Add(2 * time.Hour),
			wantRemaining: 14,
			wantAccess:    true,
		},
		{
			name:          "partial day truncates toward zero",
			now:           start.Add(36 * time.Hour),
			wantRemaining: 13,
			wantAccess:    true,
		},
		{
			name:          "last day with access",
			now:           start.Add(13*24*time.Hour + 6*time.Hour),
			wantRemaining: 1,
			wantAccess:    true,
		},
		{
			name:          "exactly exhausted",
			now:           start.Add(14 * 24 * time.Hour),
			wantRemaining: 0,
			wantAccess:    false,
		},
		{
			name:          "long after expiry floors at zero",
			now:           start.Add(90 * 24 * time.Hour),
			wantRemaining: 0,
			wantAccess:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ent := Calculate(trialAccount(&start), tt.now, domain.TrialDays)
			assert.Equal(t, tt.wantRemaining, ent.TrialDaysRemaining)
			assert.Equal(t, tt.wantAccess, ent.HasActiveAccess)
		})
	}
}

func TestCalculateTrialNonIncreasing(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	prev := domain.TrialDays
	for hour := 0; hour <= 20*24; hour += 7 {
		now := start.Add(time.Duration(hour) * time.Hour)
		ent := Calculate(trialAccount(&start), now, domain.TrialDays)

		assert.LessOrEqual(t, ent.TrialDaysRemaining, prev, "remaining days must not increase as now advances")
		assert.GreaterOrEqual(t, ent.TrialDaysRemaining, 0)
		assert.Equal(t, ent.TrialDaysRemaining > 0, ent.HasActiveAccess, "access flips exactly when remaining reaches 0")
		prev = ent.TrialDaysRemaining
	}
}

func TestCalculatePaidStatuses(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		status     domain.SubscriptionStatus
		tier       domain.SubscriptionTier
		wantAccess bool
	}{
		{domain.SubscriptionStatusActive, domain.SubscriptionTierMonthly, true},
		{domain.SubscriptionStatusActive, domain.SubscriptionTierAnnual, true},
		{domain.SubscriptionStatusActive, "", true},
		{domain.SubscriptionStatusPastDue, domain.SubscriptionTierMonthly, true},
		{domain.SubscriptionStatusPastDue, "", true},
		{domain.SubscriptionStatusCanceled, domain.SubscriptionTierAnnual, false},
		{domain.SubscriptionStatusExpired, domain.SubscriptionTierMonthly, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.tier), func(t *testing.T) {
			acc := domain.Account{
				SubscriptionStatus: tt.status,
				SubscriptionTier:   tt.tier,
			}
			ent := Calculate(acc, now, domain.TrialDays)

			assert.Equal(t, tt.wantAccess, ent.HasActiveAccess)
			assert.Equal(t, tt.tier, ent.Tier)
			assert.Zero(t, ent.TrialDaysRemaining)
		})
	}
}

func TestCalculateManagedChildAlwaysActive(t *testing.T) {
	now := time.Now()
	acc := domain.Account{
		SubscriptionStatus: domain.SubscriptionStatusActive,
		IsManagedChild:     true,
	}

	ent := Calculate(acc, now, domain.TrialDays)
	assert.True(t, ent.HasActiveAccess)
}
