package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus статус подписки аккаунта
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

// SubscriptionTier тариф подписки
type SubscriptionTier string

const (
	SubscriptionTierMonthly SubscriptionTier = "monthly"
	SubscriptionTierAnnual  SubscriptionTier = "annual"
)

// FamilyRole роль аккаунта в семье
type FamilyRole string

const (
	FamilyRoleLeader FamilyRole = "leader"
	FamilyRoleMember FamilyRole = "member"
)

// Account представляет собой аккаунт пользователя с полями биллинга.
// Поля биллинга (Status, Tier, CurrentPeriodEnd, рефы) для обычного аккаунта
// принадлежат обработчику вебхуков после появления PaymentSubscriptionRef,
// до этого - триальным часам. Управляемый детский аккаунт всегда active
// и обработчиком вебхуков не изменяется.
type Account struct {
	ID                     uuid.UUID          `json:"id" db:"id"`
	Email                  string             `json:"email" db:"email"`
	SubscriptionStatus     SubscriptionStatus `json:"subscription_status" db:"subscription_status"`
	SubscriptionTier       SubscriptionTier   `json:"subscription_tier,omitempty" db:"subscription_tier"`
	TrialStart             *time.Time         `json:"trial_start,omitempty" db:"trial_start"`
	CurrentPeriodEnd       *time.Time         `json:"current_period_end,omitempty" db:"current_period_end"`
	PaymentCustomerRef     string             `json:"payment_customer_ref,omitempty" db:"payment_customer_ref"`
	PaymentSubscriptionRef string             `json:"payment_subscription_ref,omitempty" db:"payment_subscription_ref"`
	FamilyID               *uuid.UUID         `json:"family_id,omitempty" db:"family_id"`
	FamilyRole             FamilyRole         `json:"family_role,omitempty" db:"family_role"`
	IsManagedChild         bool               `json:"is_managed_child" db:"is_managed_child"`
	ManagedByAccountID     *uuid.UUID         `json:"managed_by_account_id,omitempty" db:"managed_by_account_id"`
	Slug                   string             `json:"slug,omitempty" db:"slug"`
	CreatedAt              time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at" db:"updated_at"`
}

// BillingUpdate описывает частичное обновление биллинговых полей аккаунта.
// Nil-поля не изменяются (существующее значение в хранилище сохраняется).
type BillingUpdate struct {
	Status           SubscriptionStatus
	Tier             *SubscriptionTier
	CurrentPeriodEnd *time.Time
}

// ChildAccount результат создания управляемого детского аккаунта
type ChildAccount struct {
	AccountID uuid.UUID `json:"accountId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
}
