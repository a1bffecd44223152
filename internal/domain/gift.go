package domain

import (
	"time"

	"github.com/google/uuid"
)

// GiftStatus статус подарочной подписки
type GiftStatus string

const (
	GiftStatusPending  GiftStatus = "pending"
	GiftStatusRedeemed GiftStatus = "redeemed"
)

// GiftSubscription представляет собой оплаченную подарочную подписку.
// Статус переходит pending -> redeemed ровно один раз; запись никогда
// не удаляется. RecipientEmail сравнивается без учета регистра.
type GiftSubscription struct {
	ID                  uuid.UUID        `json:"id" db:"id"`
	PurchaserAccountID  uuid.UUID        `json:"purchaser_account_id" db:"purchaser_account_id"`
	RecipientEmail      string           `json:"recipient_email" db:"recipient_email"`
	Tier                SubscriptionTier `json:"tier" db:"tier"`
	Status              GiftStatus       `json:"status" db:"status"`
	CheckoutSessionRef  string           `json:"checkout_session_ref" db:"checkout_session_ref"`
	RedeemedAt          *time.Time       `json:"redeemed_at,omitempty" db:"redeemed_at"`
	RedeemedByAccountID *uuid.UUID       `json:"redeemed_by_account_id,omitempty" db:"redeemed_by_account_id"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at" db:"updated_at"`
}

// Длительность прямого гранта при активации подарка
const (
	GiftGrantAnnual  = 365 * 24 * time.Hour
	GiftGrantMonthly = 30 * 24 * time.Hour
)

// GrantDuration возвращает срок действия гранта для тарифа подарка
func (g *GiftSubscription) GrantDuration() time.Duration {
	if g.Tier == SubscriptionTierAnnual {
		return GiftGrantAnnual
	}
	return GiftGrantMonthly
}
