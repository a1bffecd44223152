package domain

// TrialDays длина триального периода в днях
const TrialDays = 14

// Entitlement представляет собой решение о доступе для аккаунта
type Entitlement struct {
	Status             SubscriptionStatus `json:"status"`
	Tier               SubscriptionTier   `json:"tier,omitempty"`
	TrialDaysRemaining int                `json:"trialDaysRemaining"`
	HasActiveAccess    bool               `json:"hasActiveAccess"`
}
