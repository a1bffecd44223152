package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dhoini/Entitlement-service/internal/domain"
	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Префикс ключей кеша аккаунтов
	accountKeyPrefix = "account:"

	// TTL для кеша
	defaultCacheTTL = 15 * time.Minute
)

// RedisCacheRepository реализует кеширование строк аккаунтов в Redis.
// Проверка entitlement на каждый запрос доступа читает аккаунт через кеш;
// любая запись биллинговых полей инвалидирует запись кеша.
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository создает новый экземпляр Redis репозитория
func NewRedisCacheRepository(redisAddr, redisPassword string, redisDB int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// Проверяем соединение с Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", redisAddr)
	return &RedisCacheRepository{
		client: client,
		log:    log,
	}, nil
}

// Close закрывает соединение с Redis
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// CacheAccount кеширует аккаунт в Redis
func (r *RedisCacheRepository) CacheAccount(ctx context.Context, acc *domain.Account) error {
	key := fmt.Sprintf("%s%s", accountKeyPrefix, acc.ID)

	data, err := json.Marshal(acc)
	if err != nil {
		r.log.Errorw("Failed to marshal account for caching", "error", err, "accountID", acc.ID)
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	if err := r.client.Set(ctx, key, data, defaultCacheTTL).Err(); err != nil {
		r.log.Errorw("Failed to cache account in Redis", "error", err, "accountID", acc.ID)
		return fmt.Errorf("failed to cache account: %w", err)
	}

	r.log.Debugw("Account cached successfully", "accountID", acc.ID)
	return nil
}

// GetCachedAccount получает аккаунт из кеша
func (r *RedisCacheRepository) GetCachedAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	key := fmt.Sprintf("%s%s", accountKeyPrefix, id)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			// Ключ не найден в кеше
			r.log.Debugw("Account not found in cache", "accountID", id)
			return nil, nil // Возвращаем nil вместо ошибки
		}
		r.log.Errorw("Error getting account from Redis", "error", err, "accountID", id)
		return nil, fmt.Errorf("failed to get account from cache: %w", err)
	}

	var acc domain.Account
	if err := json.Unmarshal(data, &acc); err != nil {
		r.log.Errorw("Failed to unmarshal cached account", "error", err, "accountID", id)
		return nil, fmt.Errorf("failed to unmarshal cached account: %w", err)
	}

	r.log.Debugw("Account retrieved from cache", "accountID", id)
	return &acc, nil
}

// InvalidateAccount удаляет аккаунт из кеша
func (r *RedisCacheRepository) InvalidateAccount(ctx context.Context, id uuid.UUID) error {
	key := fmt.Sprintf("%s%s", accountKeyPrefix, id)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Errorw("Failed to invalidate account cache", "error", err, "accountID", id)
		return fmt.Errorf("failed to invalidate account cache: %w", err)
	}

	r.log.Debugw("Account cache invalidated", "accountID", id)
	return nil
}
