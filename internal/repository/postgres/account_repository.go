package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/internal/repository"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAccountRepository реализация репозитория аккаунтов через PostgreSQL
type PostgresAccountRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresAccountRepository создает новый репозиторий аккаунтов через PostgreSQL
func NewPostgresAccountRepository(db *pgxpool.Pool, log *logger.Logger) *PostgresAccountRepository {
	return &PostgresAccountRepository{
		db:  db,
		log: log,
	}
}

// Create создает новый аккаунт
func (r *PostgresAccountRepository) Create(ctx context.Context, acc *domain.Account) error {
	now := time.Now()
	acc.CreatedAt = now
	acc.UpdatedAt = now

	query := `
		INSERT INTO accounts (
			id, email, subscription_status, subscription_tier, trial_start,
			current_period_end, payment_customer_ref, payment_subscription_ref,
			family_id, family_role, is_managed_child, managed_by_account_id,
			slug, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		acc.ID,
		acc.Email,
		acc.SubscriptionStatus,
		nullableTier(acc.SubscriptionTier),
		acc.TrialStart,
		acc.CurrentPeriodEnd,
		nullableString(acc.PaymentCustomerRef),
		nullableString(acc.PaymentSubscriptionRef),
		acc.FamilyID,
		nullableString(string(acc.FamilyRole)),
		acc.IsManagedChild,
		acc.ManagedByAccountID,
		nullableString(acc.Slug),
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.log.Warnw("Duplicate account insert", "accountID", acc.ID, "constraint", pgErr.ConstraintName)
			return repository.ErrDuplicate
		}
		r.log.Errorw("Failed to create account in DB", "error", err, "accountID", acc.ID)
		return fmt.Errorf("repository: failed to create account: %w", err)
	}

	r.log.Debugw("Successfully created account in DB", "accountID", acc.ID)
	return nil
}

// GetByID возвращает аккаунт по ID
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, email, subscription_status, COALESCE(subscription_tier, ''),
		       trial_start, current_period_end,
		       COALESCE(payment_customer_ref, ''), COALESCE(payment_subscription_ref, ''),
		       family_id, COALESCE(family_role, ''), is_managed_child,
		       managed_by_account_id, COALESCE(slug, ''), created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var acc domain.Account
	err := r.db.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.Email,
		&acc.SubscriptionStatus,
		&acc.SubscriptionTier,
		&acc.TrialStart,
		&acc.CurrentPeriodEnd,
		&acc.PaymentCustomerRef,
		&acc.PaymentSubscriptionRef,
		&acc.FamilyID,
		&acc.FamilyRole,
		&acc.IsManagedChild,
		&acc.ManagedByAccountID,
		&acc.Slug,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.log.Warnw("Account not found by ID", "accountID", id)
			return nil, repository.ErrNotFound
		}
		r.log.Errorw("Failed to get account by ID from DB", "error", err, "accountID", id)
		return nil, fmt.Errorf("repository: failed to get account: %w", err)
	}

	return &acc, nil
}

// UpdateBilling применяет частичное обновление биллинговых полей.
// COALESCE сохраняет текущее значение колонки для nil-полей обновления.
func (r *PostgresAccountRepository) UpdateBilling(ctx context.Context, id uuid.UUID, upd domain.BillingUpdate) error {
	query := `
		UPDATE accounts SET
			subscription_status = $2,
			subscription_tier = COALESCE($3, subscription_tier),
			current_period_end = COALESCE($4, current_period_end),
			updated_at = $5
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, upd.Status, upd.Tier, upd.CurrentPeriodEnd, time.Now())
	if err != nil {
		r.log.Errorw("Failed to update account billing in DB", "error", err, "accountID", id)
		return fmt.Errorf("repository: failed to update account billing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.log.Warnw("Billing update affected 0 rows", "accountID", id)
		return repository.ErrNotFound
	}

	r.log.Debugw("Successfully updated account billing", "accountID", id, "status", upd.Status)
	return nil
}

// AttachPaymentRefs сохраняет внешние идентификаторы платежного шлюза
func (r *PostgresAccountRepository) AttachPaymentRefs(ctx context.Context, id uuid.UUID, customerRef, subscriptionRef string) error {
	query := `
		UPDATE accounts SET
			payment_customer_ref = $2,
			payment_subscription_ref = $3,
			updated_at = $4
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, customerRef, subscriptionRef, time.Now())
	if err != nil {
		r.log.Errorw("Failed to attach payment refs in DB", "error", err, "accountID", id)
		return fmt.Errorf("repository: failed to attach payment refs: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	r.log.Debugw("Successfully attached payment refs", "accountID", id, "customerRef", customerRef)
	return nil
}

// SetTrialStart проставляет начало триала, только если оно еще NULL
func (r *PostgresAccountRepository) SetTrialStart(ctx context.Context, id uuid.UUID, start time.Time) error {
	query := `
		UPDATE accounts SET
			trial_start = $2,
			updated_at = $3
		WHERE id = $1 AND trial_start IS NULL
	`

	// 0 затронутых строк не ошибка: другой запрос уже проставил trial_start
	_, err := r.db.Exec(ctx, query, id, start, time.Now())
	if err != nil {
		r.log.Errorw("Failed to set trial start in DB", "error", err, "accountID", id)
		return fmt.Errorf("repository: failed to set trial start: %w", err)
	}

	return nil
}

// CountManagedChildren возвращает число управляемых детских аккаунтов родителя
func (r *PostgresAccountRepository) CountManagedChildren(ctx context.Context, parentID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM accounts
		WHERE managed_by_account_id = $1 AND is_managed_child = TRUE
	`

	var count int
	if err := r.db.QueryRow(ctx, query, parentID).Scan(&count); err != nil {
		r.log.Errorw("Failed to count managed children", "error", err, "parentID", parentID)
		return 0, fmt.Errorf("repository: failed to count managed children: %w", err)
	}

	return count, nil
}

// SlugExists проверяет занятость slug-а
func (r *PostgresAccountRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE slug = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, slug).Scan(&exists); err != nil {
		r.log.Errorw("Failed to check slug existence", "error", err, "slug", slug)
		return false, fmt.Errorf("repository: failed to check slug: %w", err)
	}

	return exists, nil
}

// nullableString возвращает nil для пустой строки (колонки с NULL)
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableTier возвращает nil для незаданного тарифа
func nullableTier(t domain.SubscriptionTier) any {
	if t == "" {
		return nil
	}
	return t
}
