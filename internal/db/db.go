package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/config"
)

type Database struct {
	Pool   *pgxpool.Pool
	Schema string
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)

	// Every pooled connection resolves unqualified table names in the service schema
	schema := cfg.Database.Schema
	poolConfig.ConnConfig.RuntimeParams["search_path"] = schema + ", public"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	log.Info("connected to PostgreSQL",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName),
		zap.String("schema", schema))

	return &Database{
		Pool:   pool,
		Schema: schema,
	}, nil
}

func (d *Database) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}

// EnsureSchema creates the directory tables and the fixed pool of featured
// slots. Existing slots are left untouched so assignments survive restarts.
func (d *Database) EnsureSchema(ctx context.Context, slotCount int) error {
	schema := pgx.Identifier{d.Schema}.Sanitize()
	if _, err := d.Pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	_, err := d.Pool.Exec(ctx, `
		INSERT INTO featured_slots (id)
		SELECT generate_series(1, $1)
		ON CONFLICT (id) DO NOTHING
	`, slotCount)
	if err != nil {
		return fmt.Errorf("seed featured slots: %w", err)
	}

	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS providers (
		id             UUID PRIMARY KEY,
		name           VARCHAR(255) NOT NULL,
		category       VARCHAR(100) NOT NULL,
		city           VARCHAR(100) NOT NULL DEFAULT '',
		description    TEXT NOT NULL DEFAULT '',
		email          VARCHAR(255) NOT NULL UNIQUE,
		password_hash  VARCHAR(255) NOT NULL,
		phone          VARCHAR(50),
		whatsapp       VARCHAR(50),
		website        VARCHAR(255),
		status         VARCHAR(20) NOT NULL DEFAULT 'pending',
		tier           VARCHAR(20) NOT NULL DEFAULT 'free',
		badge          VARCHAR(20),
		services       TEXT[] NOT NULL DEFAULT '{}',
		public_display BOOLEAN NOT NULL DEFAULT false,
		registered_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_providers_status ON providers (status)`,
	`CREATE TABLE IF NOT EXISTS featured_slots (
		id          INT PRIMARY KEY,
		provider_id VARCHAR(255),
		assigned_at TIMESTAMPTZ,
		expires_at  TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id          UUID PRIMARY KEY,
		provider_id UUID NOT NULL,
		author_name VARCHAR(255) NOT NULL,
		rating      SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		text        TEXT NOT NULL DEFAULT '',
		status      VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_provider ON reviews (provider_id, status)`,
	`CREATE TABLE IF NOT EXISTS moderation_logs (
		id          UUID PRIMARY KEY,
		provider_id UUID NOT NULL,
		action      VARCHAR(50) NOT NULL,
		actor       VARCHAR(255) NOT NULL,
		message     TEXT NOT NULL DEFAULT '',
		metadata    JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_moderation_logs_provider ON moderation_logs (provider_id, created_at DESC)`,
}
