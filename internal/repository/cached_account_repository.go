package repository

import (
	"context"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/google/uuid"
)

// CachedAccountRepository реализует AccountRepository с кешированием чтений.
// Ошибки кеша не прерывают операцию: источником истины остается
// основное хранилище.
type CachedAccountRepository struct {
	repo  AccountRepository
	cache *RedisCacheRepository
	log   *logger.Logger
}

// NewCachedAccountRepository создает новый репозиторий аккаунтов с кешированием
func NewCachedAccountRepository(
	repo AccountRepository,
	cache *RedisCacheRepository,
	log *logger.Logger,
) AccountRepository {
	return &CachedAccountRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create создает аккаунт в БД и кеширует его
func (r *CachedAccountRepository) Create(ctx context.Context, acc *domain.Account) error {
	if err := r.repo.Create(ctx, acc); err != nil {
		return err
	}

	if err := r.cache.CacheAccount(ctx, acc); err != nil {
		r.log.Warnw("Failed to cache account after creation", "error", err, "accountID", acc.ID)
		// Продолжаем выполнение, несмотря на ошибку кеширования
	}

	return nil
}

// GetByID получает аккаунт (сначала из кеша, потом из БД)
func (r *CachedAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	cached, err := r.cache.GetCachedAccount(ctx, id)
	if err != nil {
		r.log.Warnw("Error getting account from cache", "error", err, "accountID", id)
		// Продолжаем выполнение при ошибке кеша
	}

	if cached != nil {
		return cached, nil
	}

	acc, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.CacheAccount(ctx, acc); err != nil {
		r.log.Warnw("Failed to cache account after fetching", "error", err, "accountID", id)
	}

	return acc, nil
}

// UpdateBilling применяет обновление биллинга и инвалидирует кеш
func (r *CachedAccountRepository) UpdateBilling(ctx context.Context, id uuid.UUID, upd domain.BillingUpdate) error {
	if err := r.repo.UpdateBilling(ctx, id, upd); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// AttachPaymentRefs сохраняет рефы шлюза и инвалидирует кеш
func (r *CachedAccountRepository) AttachPaymentRefs(ctx context.Context, id uuid.UUID, customerRef, subscriptionRef string) error {
	if err := r.repo.AttachPaymentRefs(ctx, id, customerRef, subscriptionRef); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// SetTrialStart проставляет начало триала и инвалидирует кеш
func (r *CachedAccountRepository) SetTrialStart(ctx context.Context, id uuid.UUID, start time.Time) error {
	if err := r.repo.SetTrialStart(ctx, id, start); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// CountManagedChildren возвращает число детских аккаунтов (без кеширования)
func (r *CachedAccountRepository) CountManagedChildren(ctx context.Context, parentID uuid.UUID) (int, error) {
	return r.repo.CountManagedChildren(ctx, parentID)
}

// SlugExists проверяет занятость slug-а (без кеширования)
func (r *CachedAccountRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.repo.SlugExists(ctx, slug)
}

// invalidate сбрасывает кеш аккаунта, ошибки только логируются
func (r *CachedAccountRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.cache.InvalidateAccount(ctx, id); err != nil {
		r.log.Warnw("Failed to invalidate account cache", "error", err, "accountID", id)
	}
}
