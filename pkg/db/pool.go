// Package db persists diagnostic records in Postgres via pgx.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

// DiagnosticsTable holds one row per logged error.
const DiagnosticsTable = "diagnostic_errors"

// Diagnostics are written by a single background writer; the rest is CLI reads.
const (
	maxConns = 4
	minConns = 1
)

// NewPool creates a new pgx connection pool from the given database URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to database", logPrefix))

	config, err := poolConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Database connection established", logPrefix))
	return pool, nil
}

func poolConfig(databaseURL string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}
	config.MaxConns = maxConns
	config.MinConns = minConns
	return config, nil
}

// RunMigrations applies SQL migration files in order.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrationFiles []string) error {
	slog.Info(fmt.Sprintf("%s - Running %d migrations", logPrefix, len(migrationFiles)))

	for _, sql := range migrationFiles {
		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("%s - migration failed: %w", logPrefix, err)
		}
	}

	slog.Info(fmt.Sprintf("%s - Migrations complete", logPrefix))
	return nil
}

// SchemaApplied reports whether DiagnosticsTable exists.
func SchemaApplied(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		DiagnosticsTable).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s - failed to check schema: %w", logPrefix, err)
	}
	return exists, nil
}

// MigrationStatus prints whether the schema is present.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrationPath string) error {
	exists, err := SchemaApplied(ctx, pool)
	if err != nil {
		return err
	}

	files, err := LoadMigrationFiles(migrationPath)
	if err != nil {
		return fmt.Errorf("%s - load migration list: %w", logPrefix, err)
	}

	if exists {
		fmt.Printf("Migration status: applied (schema present, %d migration files in %s)\n", len(files), migrationPath)
	} else {
		fmt.Printf("Migration status: not applied (run 'platform-client migrate up'). %d migration files in %s\n", len(files), migrationPath)
	}
	return nil
}

// MigrationDown runs the rollback scripts in <migrationPath>/down in reverse name order.
func MigrationDown(ctx context.Context, pool *pgxpool.Pool, migrationPath string) error {
	files, err := LoadMigrationFiles(filepath.Join(migrationPath, "down"))
	if err != nil {
		return fmt.Errorf("%s - load down migrations: %w", logPrefix, err)
	}
	if len(files) == 0 {
		fmt.Println("Migration down: no rollback scripts found.")
		return nil
	}

	reversed := make([]string, len(files))
	for i, sql := range files {
		reversed[len(files)-1-i] = sql
	}
	if err := RunMigrations(ctx, pool, reversed); err != nil {
		return fmt.Errorf("%s - rollback failed: %w", logPrefix, err)
	}
	fmt.Printf("Migration down: applied %d rollback scripts.\n", len(reversed))
	return nil
}
