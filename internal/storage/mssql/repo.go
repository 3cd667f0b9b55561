// Package mssql implements a Microsoft SQL Server repository using the
// go-mssqldb bulk copy API. Upserts bulk-insert into a session temporary
// table (#tmp) and MERGE into the target.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a Repository and returns a Close function for
// cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{db: db}, closeFn, nil
}

// BulkUpsert bulk-copies rows into a #tmp table shaped like the target, then
// merges them in one statement. The #tmp table is dropped inside the
// transaction so pooled sessions never collide on leftovers.
func (r *Repository) BulkUpsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("no columns given for %s", table)
	}

	tmp := "#tmp_" + strings.ReplaceAll(table, ".", "_")
	fqTable := msFQN(table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	create := fmt.Sprintf(
		"SELECT TOP 0 %s INTO %s FROM %s",
		strings.Join(mapIdent(columns), ","), msIdent(tmp), fqTable,
	)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		rollback()
		return 0, fmt.Errorf("create temp: %w", err)
	}

	if err := copyIn(ctx, tx, tmp, columns, rows); err != nil {
		rollback()
		return 0, err
	}

	merge := buildMerge(fqTable, msIdent(tmp), columns, keyColumns)
	res, err := tx.ExecContext(ctx, merge)
	if err != nil {
		rollback()
		return 0, fmt.Errorf("merge phase: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE "+msIdent(tmp)); err != nil {
		rollback()
		return 0, fmt.Errorf("drop temp: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// ReplaceAll swaps the table's contents for the given rows in one
// transaction.
func (r *Repository) ReplaceAll(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	fqTable := msFQN(table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+fqTable); err != nil {
		rollback()
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}
	if len(rows) > 0 {
		if err := copyIn(ctx, tx, table, columns, rows); err != nil {
			rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int64(len(rows)), nil
}

// QueryRows reads the given columns from the table in storage order.
func (r *Repository) QueryRows(ctx context.Context, table string, columns []string) ([][]any, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(mapIdent(columns), ","), msFQN(table))
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

// copyIn streams rows into table over the bulk copy protocol within tx.
func copyIn(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{}, columns...))
	if err != nil {
		return fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	_, err = stmt.ExecContext(ctx) // flush
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("bulk finalize: %w", err)
	}
	return nil
}

// buildMerge renders the MERGE statement joining staged rows onto the target
// by the key columns. Without keys it degrades to insert-only.
func buildMerge(target, source string, columns, keyColumns []string) string {
	keySet := make(map[string]struct{}, len(keyColumns))
	onConds := make([]string, 0, len(keyColumns))
	for _, k := range keyColumns {
		keySet[k] = struct{}{}
		onConds = append(onConds, fmt.Sprintf("T.%s = S.%s", msIdent(k), msIdent(k)))
	}
	if len(onConds) == 0 {
		// No keys: nothing can match, insert everything.
		onConds = append(onConds, "1 = 0")
	}

	var assigns []string
	insertCols := make([]string, 0, len(columns))
	insertVals := make([]string, 0, len(columns))
	for _, c := range columns {
		insertCols = append(insertCols, msIdent(c))
		insertVals = append(insertVals, "S."+msIdent(c))
		if _, isKey := keySet[c]; isKey {
			continue
		}
		assigns = append(assigns, fmt.Sprintf("T.%s = S.%s", msIdent(c), msIdent(c)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s AS T\nUSING %s AS S\n  ON %s\n", target, source, strings.Join(onConds, " AND "))
	if len(assigns) > 0 {
		fmt.Fprintf(&b, "WHEN MATCHED THEN UPDATE SET %s\n", strings.Join(assigns, ", "))
	}
	fmt.Fprintf(&b, "WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);",
		strings.Join(insertCols, ", "), strings.Join(insertVals, ", "))
	return b.String()
}

// msIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// msFQN quotes a possibly schema-qualified name like "dbo.table_schemes" to
// "[dbo].[table_schemes]". If no dot is present, returns a single quoted
// ident.
func msFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = msIdent(p)
	}
	return strings.Join(parts, ".")
}

// mapIdent maps a list of column names to their bracket-quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = msIdent(c)
	}
	return out
}
