package repository

import (
	"context"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/google/uuid"
)

// GiftRepository интерфейс репозитория подарочных подписок
type GiftRepository interface {
	// Create создает новую запись подарка (статус pending)
	Create(ctx context.Context, gift *domain.GiftSubscription) error

	// GetByID возвращает подарок по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GiftSubscription, error)

	// MarkRedeemed условно переводит подарок pending -> redeemed.
	// Обновление выполняется только если текущий статус все еще pending;
	// иначе возвращается ErrAlreadyRedeemed. Так два конкурентных вызова
	// на одном подарке дают ровно один успех.
	MarkRedeemed(ctx context.Context, id uuid.UUID, redeemedBy uuid.UUID, redeemedAt time.Time) error
}
