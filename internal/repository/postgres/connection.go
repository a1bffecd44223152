package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Dhoini/Entitlement-service/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// NewConnection создает новое подключение к PostgreSQL
func NewConnection(ctx context.Context, connString string, log *logger.Logger) (*pgxpool.Pool, error) {
	log.Infow("Connecting to PostgreSQL")

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Настраиваем пул соединений
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Проверяем подключение
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Infow("Successfully connected to PostgreSQL")
	return pool, nil
}

// NewSQLXConnection создает sqlx-подключение поверх драйвера pgx/stdlib
// (используется репозиторием подарков с именованными запросами)
func NewSQLXConnection(connString string, log *logger.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", connString)
	if err != nil {
		log.Errorw("Failed to connect to database via sqlx", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Errorw("Failed to ping database via sqlx", "error", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
