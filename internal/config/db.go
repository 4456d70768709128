package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer is the part of a pool AutoMigrate needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ConnectDB establishes a connection to the PostgreSQL database, retrying
// cfg.ConnectRetries times while the server comes up.
func ConnectDB(ctx context.Context, cfg DBConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	var lastErr error

	for attempt := 1; attempt <= cfg.ConnectRetries; attempt++ {
		pool, err := pgxpool.New(ctx, cfg.DSN())
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				logger.Info("connected to PostgreSQL", slog.String("host", cfg.Host), slog.String("database", cfg.Name))
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		logger.Warn("failed to connect to database",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.ConnectRetries),
			slog.Duration("retry_in", cfg.RetryInterval),
			slog.Any("error", err),
		)
		if attempt == cfg.ConnectRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", cfg.ConnectRetries, lastErr)
}

// Schema creates the tables and triggers if they don't exist. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	email VARCHAR(255) NOT NULL,
	password_hash TEXT NOT NULL,
	role VARCHAR(10) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT users_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS vehicles (
	id SERIAL PRIMARY KEY,
	registration_number VARCHAR(20) NOT NULL,
	make VARCHAR(50) NOT NULL,
	model VARCHAR(50) NOT NULL,
	year INTEGER NOT NULL CHECK (year >= 1900),
	rent_price NUMERIC(10, 2) NOT NULL CHECK (rent_price > 0),
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT vehicles_registration_number_key UNIQUE (registration_number)
);

CREATE INDEX IF NOT EXISTS idx_vehicles_rent_price ON vehicles(rent_price);

CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
	NEW.updated_at = NOW();
	RETURN NEW;
END;
$$ language 'plpgsql';

DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_trigger
		WHERE tgname = 'set_users_updated_at' AND tgrelid = 'users'::regclass
	) THEN
		CREATE TRIGGER set_users_updated_at
		BEFORE UPDATE ON users
		FOR EACH ROW
		EXECUTE FUNCTION update_updated_at_column();
	END IF;

	IF NOT EXISTS (
		SELECT 1 FROM pg_trigger
		WHERE tgname = 'set_vehicles_updated_at' AND tgrelid = 'vehicles'::regclass
	) THEN
		CREATE TRIGGER set_vehicles_updated_at
		BEFORE UPDATE ON vehicles
		FOR EACH ROW
		EXECUTE FUNCTION update_updated_at_column();
	END IF;
END
$$;
`

// AutoMigrate applies Schema.
func AutoMigrate(ctx context.Context, db Execer, logger *slog.Logger) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}
	logger.Info("AutoMigrate applied successfully")
	return nil
}
