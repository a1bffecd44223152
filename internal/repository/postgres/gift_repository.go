package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/repository"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// postgresGiftRepo реализует GiftRepository для PostgreSQL
type postgresGiftRepo struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewPostgresGiftRepository создает новый экземпляр репозитория подарков для PostgreSQL
func NewPostgresGiftRepository(db *sqlx.DB, log *logger.Logger) repository.GiftRepository {
	return &postgresGiftRepo{
		db:  db,
		log: log,
	}
}

// Create сохраняет новую подарочную подписку в базе данных
func (r *postgresGiftRepo) Create(ctx context.Context, gift *domain.GiftSubscription) error {
	now := time.Now()
	gift.CreatedAt = now
	gift.UpdatedAt = now

	query := `
		INSERT INTO gift_subscriptions (
			id, purchaser_account_id, recipient_email, tier, status,
			checkout_session_ref, redeemed_at, redeemed_by_account_id,
			created_at, updated_at
		) VALUES (
			:id, :purchaser_account_id, :recipient_email, :tier, :status,
			:checkout_session_ref, :redeemed_at, :redeemed_by_account_id,
			:created_at, :updated_at
		)`

	// NamedExecContext маппит поля структуры на параметры запроса
	_, err := r.db.NamedExecContext(ctx, query, gift)
	if err != nil {
		r.log.Errorw("Failed to create gift subscription in DB", "error", err, "giftID", gift.ID)
		return fmt.Errorf("repository: failed to create gift subscription: %w", err)
	}

	r.log.Debugw("Successfully created gift subscription in DB", "giftID", gift.ID, "recipient", gift.RecipientEmail)
	return nil
}

// GetByID возвращает подарочную подписку по ее ID
func (r *postgresGiftRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.GiftSubscription, error) {
	var gift domain.GiftSubscription
	query := `
		SELECT id, purchaser_account_id, recipient_email, tier, status,
		       checkout_session_ref, redeemed_at, redeemed_by_account_id,
		       created_at, updated_at
		FROM gift_subscriptions
		WHERE id = $1`

	err := r.db.GetContext(ctx, &gift, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnw("Gift subscription not found by ID", "giftID", id)
			return nil, repository.ErrNotFound
		}
		r.log.Errorw("Failed to get gift subscription by ID from DB", "error", err, "giftID", id)
		return nil, fmt.Errorf("repository: failed to get gift subscription: %w", err)
	}

	return &gift, nil
}

// MarkRedeemed условно переводит подарок pending -> redeemed.
// Условие status = 'pending' в WHERE гарантирует, что из двух конкурентных
// активаций одного подарка пройдет ровно одна.
func (r *postgresGiftRepo) MarkRedeemed(ctx context.Context, id uuid.UUID, redeemedBy uuid.UUID, redeemedAt time.Time) error {
	query := `
		UPDATE gift_subscriptions SET
			status = $2,
			redeemed_at = $3,
			redeemed_by_account_id = $4,
			updated_at = $5
		WHERE id = $1 AND status = $6`

	result, err := r.db.ExecContext(ctx, query,
		id, domain.GiftStatusRedeemed, redeemedAt, redeemedBy, time.Now(), domain.GiftStatusPending)
	if err != nil {
		r.log.Errorw("Failed to mark gift as redeemed in DB", "error", err, "giftID", id)
		return fmt.Errorf("repository: failed to mark gift redeemed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorw("Failed to get rows affected after gift update", "error", err, "giftID", id)
		return fmt.Errorf("repository: failed to check gift update result: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnw("Gift redemption update affected 0 rows", "giftID", id)
		return repository.ErrAlreadyRedeemed
	}

	r.log.Debugw("Successfully marked gift as redeemed", "giftID", id, "redeemedBy", redeemedBy)
	return nil
}
