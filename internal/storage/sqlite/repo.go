// SQLite has no dedicated bulk-load API like Postgres COPY; prepared
// statements inside one transaction keep performance acceptable for the
// volumes the output tables carry.

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver; cgo-free.
	_ "modernc.org/sqlite" // alternative: github.com/mattn/go-sqlite3
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	// Enable foreign keys by default; ignore error if driver doesn't support it.
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")

	closeFn := func() { db.Close() }
	return &Repository{db: db}, closeFn, nil
}

// BulkUpsert inserts rows in one transaction with a prepared
// INSERT ... ON CONFLICT DO UPDATE, so key collisions update in place.
func (r *Repository) BulkUpsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: BulkUpsert: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		sqIdent(table),
		strings.Join(mapIdent(columns), ", "),
		placeholders(len(columns)),
	)
	if len(keyColumns) > 0 {
		var assigns []string
		keySet := make(map[string]struct{}, len(keyColumns))
		for _, k := range keyColumns {
			keySet[k] = struct{}{}
		}
		for _, c := range columns {
			if _, isKey := keySet[c]; isKey {
				continue
			}
			assigns = append(assigns, fmt.Sprintf("%s = excluded.%s", sqIdent(c), sqIdent(c)))
		}
		if len(assigns) == 0 {
			stmtSQL += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(mapIdent(keyColumns), ", "))
		} else {
			stmtSQL += fmt.Sprintf(
				" ON CONFLICT (%s) DO UPDATE SET %s",
				strings.Join(mapIdent(keyColumns), ", "),
				strings.Join(assigns, ", "),
			)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer stmt.Close()

	var written int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return written, fmt.Errorf("sqlite: BulkUpsert: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return written, fmt.Errorf("sqlite: upsert: %w", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("sqlite: commit: %w", err)
	}
	return written, nil
}

// ReplaceAll swaps the table's contents for the given rows in one
// transaction.
func (r *Repository) ReplaceAll(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: ReplaceAll: columns must not be empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+sqIdent(table)); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: clear %s: %w", table, err)
	}

	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		sqIdent(table),
		strings.Join(mapIdent(columns), ", "),
		placeholders(len(columns)),
	)
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var written int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: ReplaceAll: row length %d != columns length %d", len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert: %w", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return written, nil
}

// QueryRows reads the given columns from the table in storage order.
func (r *Repository) QueryRows(ctx context.Context, table string, columns []string) ([][]any, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(mapIdent(columns), ", "), sqIdent(table))
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

// Exec executes an arbitrary SQL statement (typically DDL) using the
// underlying database/sql connection.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// sqIdent quotes a single identifier for SQLite.
func sqIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = sqIdent(c)
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
