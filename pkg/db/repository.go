package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/platform-client/pkg/diagnostics"
)

const repoLogPrefix = "db:repository"

// DefaultListLimit caps ListDiagnostics when no limit is given.
const DefaultListLimit = 50

// Repository provides access to the diagnostic_errors table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertDiagnostic stores one record.
func (r *Repository) InsertDiagnostic(ctx context.Context, rec diagnostics.Record) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO diagnostic_errors (id, request_id, code, kind, message, reason, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.RequestID, rec.Code, rec.Kind, rec.Message, rec.Reason, rec.OccurredAt)
	if err != nil {
		return fmt.Errorf("%s - insert diagnostic %s: %w", repoLogPrefix, rec.ID, err)
	}
	return nil
}

// ListDiagnosticsParams filters ListDiagnostics.
type ListDiagnosticsParams struct {
	Kind  string
	Since time.Time
	Limit int
}

// ListDiagnostics returns the most recent records first.
func (r *Repository) ListDiagnostics(ctx context.Context, params ListDiagnosticsParams) ([]diagnostics.Record, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	slog.Debug(fmt.Sprintf("%s - ListDiagnostics kind=%q limit=%d", repoLogPrefix, params.Kind, limit))

	rows, err := r.pool.Query(ctx,
		`SELECT id, request_id, code, kind, message, reason, occurred_at
		 FROM diagnostic_errors
		 WHERE ($1 = '' OR kind = $1)
		   AND occurred_at >= $2
		 ORDER BY occurred_at DESC
		 LIMIT $3`, params.Kind, params.Since, limit)
	if err != nil {
		return nil, fmt.Errorf("%s - list diagnostics: %w", repoLogPrefix, err)
	}

	out, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("%s - scan diagnostics: %w", repoLogPrefix, err)
	}
	return out, nil
}

// CountDiagnosticsByKind returns record counts per kind.
func (r *Repository) CountDiagnosticsByKind(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT kind, COUNT(*) FROM diagnostic_errors GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("%s - count diagnostics: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("%s - scan count: %w", repoLogPrefix, err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// PurgeDiagnostics deletes records older than cutoff and returns how many were removed.
func (r *Repository) PurgeDiagnostics(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM diagnostic_errors WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s - purge diagnostics: %w", repoLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Purged %d diagnostics older than %s", repoLogPrefix, tag.RowsAffected(), cutoff.Format(time.RFC3339)))
	return tag.RowsAffected(), nil
}

func scanRecord(row pgx.CollectableRow) (diagnostics.Record, error) {
	var rec diagnostics.Record
	err := row.Scan(&rec.ID, &rec.RequestID, &rec.Code, &rec.Kind, &rec.Message, &rec.Reason, &rec.OccurredAt)
	return rec, err
}

var _ diagnostics.Store = (*Repository)(nil)
