// Package postgres provides the PostgreSQL connection pool and schema setup.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrSnakeDoc/jobscout/internal/logger"
)

// schema is applied on startup. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS saved_jobs (
		id           BIGSERIAL PRIMARY KEY,
		user_email   TEXT        NOT NULL,
		title        TEXT        NOT NULL,
		company_name TEXT        NOT NULL,
		location     TEXT        NOT NULL DEFAULT '',
		description  TEXT        NOT NULL DEFAULT '',
		salary       TEXT        NOT NULL DEFAULT '',
		job_type     TEXT        NOT NULL DEFAULT '',
		platform     TEXT        NOT NULL DEFAULT '',
		apply_link   TEXT        NOT NULL DEFAULT '',
		thumbnail    TEXT        NOT NULL DEFAULT '',
		posted_at    TEXT        NOT NULL DEFAULT '',
		is_verified  BOOLEAN     NOT NULL DEFAULT FALSE,
		dedup_key    TEXT        NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT saved_jobs_user_posting UNIQUE (user_email, dedup_key)
	)`,
	`CREATE INDEX IF NOT EXISTS saved_jobs_user_id_idx ON saved_jobs (user_email, id DESC)`,
}

// NewPool creates and verifies a pgxpool connection pool.
func NewPool(ctx context.Context, databaseURL string, log logger.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	log.Info("connected to postgres",
		logger.String("host", cfg.ConnConfig.Host),
		logger.String("database", cfg.ConnConfig.Database),
		logger.Int("max_conns", int(cfg.MaxConns)))

	return pool, nil
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
