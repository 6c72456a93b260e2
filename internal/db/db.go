package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"quantifyme/internal/config"
)

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Configuración razonable para ambientes iniciales.
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

// Migrate crea el esquema si no existe. La restriccion unica sobre
// (user_id, day) es la que sostiene la invariante de un registro por dia.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			is_premium BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS daily_records (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			day DATE NOT NULL,
			mood DOUBLE PRECISION NOT NULL,
			sleep_hours DOUBLE PRECISION NOT NULL,
			stress DOUBLE PRECISION NOT NULL,
			focus DOUBLE PRECISION NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			annotation TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT uq_user_day UNIQUE (user_id, day)
		);

		CREATE INDEX IF NOT EXISTS idx_daily_records_user_day ON daily_records (user_id, day);
	`
	_, err := pool.Exec(ctx, schema)
	return err
}
