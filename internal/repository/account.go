package repository

import (
	"context"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/google/uuid"
)

// AccountRepository интерфейс репозитория аккаунтов.
// Все операции затрагивают ровно одну строку; многострочные транзакции
// не требуются.
type AccountRepository interface {
	// Create создает новый аккаунт
	Create(ctx context.Context, acc *domain.Account) error

	// GetByID возвращает аккаунт по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// UpdateBilling применяет частичное обновление биллинговых полей.
	// Nil-поля BillingUpdate оставляют текущее значение в строке.
	UpdateBilling(ctx context.Context, id uuid.UUID, upd domain.BillingUpdate) error

	// AttachPaymentRefs сохраняет внешние идентификаторы платежного шлюза
	AttachPaymentRefs(ctx context.Context, id uuid.UUID, customerRef, subscriptionRef string) error

	// SetTrialStart проставляет начало триала, только если оно еще не проставлено
	SetTrialStart(ctx context.Context, id uuid.UUID, start time.Time) error

	// CountManagedChildren возвращает число управляемых детских аккаунтов родителя
	CountManagedChildren(ctx context.Context, parentID uuid.UUID) (int, error)

	// SlugExists проверяет занятость slug-а
	SlugExists(ctx context.Context, slug string) (bool, error)
}
