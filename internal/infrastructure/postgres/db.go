// Package postgres is the durable inventory store. Products, the till and the
// transaction log live in the products, money_stock and transactions tables.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxConns       = 20
	minConns       = 2
	connectTimeout = 10 * time.Second
)

// Connect opens a pool and pings it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: empty DATABASE_URL")
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	config.MaxConns = maxConns
	config.MinConns = minConns

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	price BIGINT NOT NULL CHECK (price > 0),
	stock_qty INT NOT NULL DEFAULT 0 CHECK (stock_qty >= 0),
	slot_no VARCHAR(10),
	image_url VARCHAR(500),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS money_stock (
	id SERIAL PRIMARY KEY,
	denom BIGINT NOT NULL UNIQUE,
	quantity INT NOT NULL CHECK (quantity >= 0),
	type VARCHAR(10) NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id BIGSERIAL PRIMARY KEY,
	product_id BIGINT NOT NULL,
	paid_amount BIGINT NOT NULL,
	change_amount BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(created_at);

-- Transactions outlive deleted products.
ALTER TABLE transactions DROP CONSTRAINT IF EXISTS transactions_product_id_fkey;

CREATE UNIQUE INDEX IF NOT EXISTS products_slot_no_key ON products(slot_no) WHERE slot_no IS NOT NULL;
`

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}
