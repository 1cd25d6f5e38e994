package postgres

import (
	"context"
	"fmt"

	"github.com/chrisdamba/dispatchsim/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS shops (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    lat  DOUBLE PRECISION NOT NULL,
    lon  DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS couriers (
    id         TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    vehicle    TEXT NOT NULL,
    lat        DOUBLE PRECISION NOT NULL,
    lon        DOUBLE PRECISION NOT NULL,
    work_start TIMESTAMPTZ NOT NULL,
    work_end   TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (id, work_start)
);
CREATE TABLE IF NOT EXISTS orders (
    id           TEXT PRIMARY KEY,
    shop_id      TEXT NOT NULL REFERENCES shops (id),
    lat          DOUBLE PRECISION NOT NULL,
    lon          DOUBLE PRECISION NOT NULL,
    weight       DOUBLE PRECISION NOT NULL,
    assembled_at TIMESTAMPTZ NOT NULL,
    deadline     TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS deliveries (
    run_id          TEXT NOT NULL,
    bundle_id       TEXT NOT NULL,
    shop_id         TEXT NOT NULL,
    courier_id      TEXT NOT NULL,
    vehicle         TEXT NOT NULL,
    taxi            BOOLEAN NOT NULL,
    start_time      TIMESTAMPTZ NOT NULL,
    end_time        TIMESTAMPTZ NOT NULL,
    order_ids       TEXT[] NOT NULL,
    order_count     INTEGER NOT NULL,
    cost            DOUBLE PRECISION NOT NULL,
    distance        DOUBLE PRECISION NOT NULL,
    reserve_seconds BIGINT NOT NULL,
    PRIMARY KEY (run_id, bundle_id)
);
CREATE INDEX IF NOT EXISTS deliveries_shop_start ON deliveries (shop_id, start_time);
`

// NewPool connects to the configured database.
func NewPool(ctx context.Context, cfg models.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables the repositories read and write.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
