package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "max_conns", poolCfg.MaxConns)
	return pool, nil
}

// RunMigrations applies the schema. Statements are idempotent so running
// them on every startup is safe.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			coins INTEGER NOT NULL DEFAULT 50,
			streak INTEGER NOT NULL DEFAULT 0,
			last_active_day TEXT NOT NULL DEFAULT '',
			videos_watched INTEGER NOT NULL DEFAULT 0,
			videos_switched INTEGER NOT NULL DEFAULT 0,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email)`,
		`CREATE TABLE IF NOT EXISTS watch_sessions (
			id BIGSERIAL PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			video_id TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			watched_day TEXT NOT NULL,
			seconds_watched INTEGER NOT NULL DEFAULT 0,
			tab_switches INTEGER NOT NULL DEFAULT 0,
			note TEXT NOT NULL DEFAULT '',
			tag TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watch_sessions_account ON watch_sessions(account_id, id)`,
		`CREATE INDEX IF NOT EXISTS idx_watch_sessions_video ON watch_sessions(account_id, video_id)`,
		`CREATE TABLE IF NOT EXISTS video_annotations (
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			video_id TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			tag TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (account_id, video_id)
		)`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	slog.Info("Database migrations completed")
	return nil
}
