package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"homego/internal/config"
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

// Migrate crea el esquema si no existe. Las sentencias son idempotentes
// para que el arranque sea seguro en cualquier ambiente.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			full_name     TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'customer',
			password_hash TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'active',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_login_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id          TEXT PRIMARY KEY,
			seller_id   TEXT NOT NULL REFERENCES users(id),
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			price       NUMERIC(12,2) NOT NULL,
			image_url   TEXT NOT NULL DEFAULT '',
			model_url   TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'active',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_seller ON products (seller_id)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id          TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL REFERENCES users(id),
			seller_id   TEXT NOT NULL REFERENCES users(id),
			items       JSONB NOT NULL DEFAULT '[]'::jsonb,
			subtotal    NUMERIC(12,2) NOT NULL,
			shipping    NUMERIC(12,2) NOT NULL,
			tax         NUMERIC(12,2) NOT NULL,
			total       NUMERIC(12,2) NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_seller ON orders (seller_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id)`,
		`CREATE TABLE IF NOT EXISTS support_tickets (
			id         TEXT PRIMARY KEY,
			ticket_id  TEXT NOT NULL UNIQUE,
			subject    TEXT NOT NULL,
			message    TEXT NOT NULL,
			user_email TEXT NOT NULL,
			user_name  TEXT NOT NULL,
			user_role  TEXT NOT NULL,
			category   TEXT NOT NULL DEFAULT 'general',
			priority   TEXT NOT NULL DEFAULT 'medium',
			status     TEXT NOT NULL DEFAULT 'open',
			responses  JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_status ON support_tickets (status)`,
		`CREATE TABLE IF NOT EXISTS promotions (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			discount_percent NUMERIC(5,2) NOT NULL,
			image_url        TEXT NOT NULL DEFAULT '',
			starts_at        TIMESTAMPTZ,
			ends_at          TIMESTAMPTZ,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
