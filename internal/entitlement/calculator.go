package entitlement

import (
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
)

// Calculate вычисляет решение о доступе для снимка аккаунта на момент now.
// Чистая функция без побочных эффектов: ничего не читает и не пишет в
// хранилище, проставление trial_start выполняет вызывающий сервис.
func Calculate(acc domain.Account, now time.Time, trialDays int) domain.Entitlement {
	ent := domain.Entitlement{
		Status: acc.SubscriptionStatus,
		Tier:   acc.SubscriptionTier,
	}

	if acc.SubscriptionStatus == domain.SubscriptionStatusTrialing {
		ent.TrialDaysRemaining = trialDaysRemaining(acc.TrialStart, now, trialDays)
	}

	switch acc.SubscriptionStatus {
	case domain.SubscriptionStatusActive, domain.SubscriptionStatusPastDue:
		ent.HasActiveAccess = true
	case domain.SubscriptionStatusTrialing:
		ent.HasActiveAccess = ent.TrialDaysRemaining > 0
	}

	return ent
}

// trialDaysRemaining возвращает остаток триала в целых днях.
// Аккаунт без проставленного trial_start считается находящимся в начале
// триала, а не просроченным. Прошедшая длительность усекается до целых
// дней в сторону нуля.
func trialDaysRemaining(trialStart *time.Time, now time.Time, trialDays int) int {
	if trialStart == nil {
		return trialDays
	}

	elapsed := int(now.Sub(*trialStart).Hours() / 24)
	remaining := trialDays - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
