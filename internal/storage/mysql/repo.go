// Package mysql implements a MySQL-backed storage.Repository using
// database/sql. Upserts run as multi-row INSERT ... ON DUPLICATE KEY UPDATE
// inside a transaction; MySQL has no COPY-style bulk protocol over the wire
// short of LOAD DATA, which needs a server-side or local file.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a Repository and returns a Close function for
// cleanup. The DSN is validated before dialing.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := mysql.ParseDSN(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	closeFn := func() { _ = db.Close() }
	return &Repository{db: db}, closeFn, nil
}

// BulkUpsert writes rows as multi-row INSERT ... ON DUPLICATE KEY UPDATE
// statements in one transaction, so key collisions update in place. MySQL
// resolves duplicates against any unique key, so keyColumns only select which
// columns stay untouched on update.
func (r *Repository) BulkUpsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("no columns given for %s", table)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	if err := insertChunked(ctx, tx, table, columns, keyColumns, rows); err != nil {
		rollback()
		return 0, fmt.Errorf("upsert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	// RowsAffected counts updates twice under ON DUPLICATE KEY; report the
	// rows handed in instead.
	return int64(len(rows)), nil
}

// ReplaceAll swaps the table's contents for the given rows in one
// transaction.
func (r *Repository) ReplaceAll(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+myFQN(table)); err != nil {
		rollback()
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}
	if err := insertChunked(ctx, tx, table, columns, nil, rows); err != nil {
		rollback()
		return 0, fmt.Errorf("insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int64(len(rows)), nil
}

// QueryRows reads the given columns from the table in storage order.
func (r *Repository) QueryRows(ctx context.Context, table string, columns []string) ([][]any, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(mapIdent(columns), ", "), myFQN(table))
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
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// maxTuplesPerInsert caps how many value tuples go into one INSERT so a
// statement never approaches MySQL's 65535-placeholder protocol limit,
// whatever the column count.
const maxTuplesPerInsert = 1000

// insertChunked writes rows in multi-row INSERT statements of at most
// maxTuplesPerInsert tuples each, all inside the caller's transaction.
func insertChunked(ctx context.Context, tx *sql.Tx, table string, columns, keyColumns []string, rows [][]any) error {
	for start := 0; start < len(rows); start += maxTuplesPerInsert {
		end := start + maxTuplesPerInsert
		if end > len(rows) {
			end = len(rows)
		}
		stmt, args, err := buildUpsert(table, columns, keyColumns, rows[start:end])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
	}
	return nil
}

// buildUpsert renders one multi-row INSERT, with an ON DUPLICATE KEY UPDATE
// clause covering the non-key columns when keyColumns are given.
func buildUpsert(table string, columns, keyColumns []string, rows [][]any) (string, []any, error) {
	valueTuple := "(" + placeholders(len(columns)) + ")"
	tuples := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("row %d length %d != columns length %d", i, len(row), len(columns))
		}
		tuples = append(tuples, valueTuple)
		args = append(args, row...)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES %s",
		myFQN(table), strings.Join(mapIdent(columns), ", "), strings.Join(tuples, ", "))

	if len(keyColumns) > 0 {
		keySet := make(map[string]struct{}, len(keyColumns))
		for _, k := range keyColumns {
			keySet[k] = struct{}{}
		}
		var assigns []string
		for _, c := range columns {
			if _, isKey := keySet[c]; isKey {
				continue
			}
			assigns = append(assigns, fmt.Sprintf("%s = VALUES(%s)", myIdent(c), myIdent(c)))
		}
		if len(assigns) == 0 {
			// All columns are keys; a duplicate changes nothing.
			k := myIdent(keyColumns[0])
			assigns = append(assigns, fmt.Sprintf("%s = %s", k, k))
		}
		fmt.Fprintf(&b, " ON DUPLICATE KEY UPDATE %s", strings.Join(assigns, ", "))
	}
	return b.String(), args, nil
}

// myIdent safely backtick-quotes a single identifier for MySQL.
func myIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// myFQN quotes a possibly database-qualified name like "jjm.table_schemes"
// to `jjm`.`table_schemes`. If no dot is present, returns a single quoted
// ident.
func myFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = myIdent(p)
	}
	return strings.Join(parts, ".")
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = myIdent(c)
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
