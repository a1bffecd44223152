package service

import (
	"context"

	"github.com/Dhoini/Entitlement-service/internal/domain"
)

// PaymentGateway определяет методы для взаимодействия с платежным шлюзом.
// Логика entitlement зависит от этого интерфейса, а не от конкретного SDK,
// и тестируется без живого сетевого доступа.
type PaymentGateway interface {
	// GetSubscription перечитывает актуальное состояние подписки из шлюза
	GetSubscription(ctx context.Context, ref string) (domain.GatewaySubscription, error)

	// CreateCheckoutSession создает checkout-сессию обычной подписки
	CreateCheckoutSession(ctx context.Context, accountID, email, priceID string) (string, error)

	// CreateGiftCheckoutSession создает разовую checkout-сессию подарка
	CreateGiftCheckoutSession(ctx context.Context, purchaserAccountID, recipientEmail string, tier domain.SubscriptionTier) (string, error)

	// CreatePortalSession создает сессию портала самообслуживания биллинга
	CreatePortalSession(ctx context.Context, customerRef string) (string, error)
}

// EventVerifier проверяет подпись вебхука и разбирает полезную нагрузку
// в типизированное событие
type EventVerifier interface {
	VerifyAndParse(payload []byte, signature string) (domain.BillingEvent, error)
}

// EventPublisher публикует события entitlement во внешнюю шину.
// Публикация выполняется по принципу best-effort: ошибка логируется
// и никогда не проваливает породившую ее операцию.
type EventPublisher interface {
	PublishSubscriptionChanged(ctx context.Context, accountID string, status domain.SubscriptionStatus, tier domain.SubscriptionTier) error
	PublishGiftRedeemed(ctx context.Context, giftID, accountID string, tier domain.SubscriptionTier) error
	PublishChildProvisioned(ctx context.Context, parentID, childID string) error
}

// IdentityProvider управляет учетными данными во внешнем identity-провайдере
type IdentityProvider interface {
	// CreateCredential создает учетные данные и возвращает их ID
	CreateCredential(ctx context.Context, address, secret string) (string, error)

	// DeleteCredential удаляет учетные данные (компенсация)
	DeleteCredential(ctx context.Context, credentialID string) error
}

// tierFromPriceID выводит тариф из идентификатора цены: сконфигурированная
// годовая цена дает annual, любая другая - monthly
func tierFromPriceID(priceID, annualPriceID string) domain.SubscriptionTier {
	if annualPriceID != "" && priceID == annualPriceID {
		return domain.SubscriptionTierAnnual
	}
	return domain.SubscriptionTierMonthly
}

// mapGatewayStatus переводит статус подписки шлюза в локальный enum.
// Неизвестные статусы схлопываются в expired.
func mapGatewayStatus(status string) domain.SubscriptionStatus {
	switch status {
	case "active":
		return domain.SubscriptionStatusActive
	case "past_due":
		return domain.SubscriptionStatusPastDue
	case "canceled":
		return domain.SubscriptionStatusCanceled
	case "trialing":
		return domain.SubscriptionStatusTrialing
	default:
		return domain.SubscriptionStatusExpired
	}
}
