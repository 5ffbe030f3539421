package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearDiagnostics removes every diagnostic record. Schema is preserved.
func ClearDiagnostics(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing %s", clearLogPrefix, DiagnosticsTable))

	if _, err := pool.Exec(ctx, "TRUNCATE TABLE "+DiagnosticsTable); err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Diagnostics cleared", clearLogPrefix))
	return nil
}
