// Package postgres implements a Postgres repository using pgx v5. Upserts
// COPY into a temporary staging table and merge into the target with
// INSERT ... ON CONFLICT, which keeps large writes off the row-at-a-time
// path.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository and returns a close function for
// cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool}, closeFn, nil
}

// BulkUpsert stages rows in a temp table via COPY, then merges them into the
// target. Rows whose key columns match an existing row replace it; the rest
// insert. Tables without key columns degrade to a plain bulk insert.
func (r *Repository) BulkUpsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("no columns given for %s", table)
	}

	tmp := "tmp_" + strings.ReplaceAll(table, ".", "_")
	fqTable := pgFQN(table)

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	// Stage into a temp table shaped like the target's selected columns.
	create := fmt.Sprintf(
		"CREATE TEMP TABLE %s AS SELECT %s FROM %s WHERE false",
		pgIdent(tmp), strings.Join(mapIdent(columns), ","), fqTable,
	)
	if _, err := conn.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("create temp: %w", err)
	}
	defer func() { _, _ = conn.Exec(ctx, "DROP TABLE IF EXISTS "+pgIdent(tmp)) }()

	if _, err := conn.CopyFrom(ctx, pgx.Identifier{tmp}, columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, copyErr(err)
	}

	insert := fmt.Sprintf(
		"INSERT INTO %s (%s)\nSELECT %s FROM %s",
		fqTable,
		strings.Join(mapIdent(columns), ","),
		strings.Join(mapIdent(columns), ","),
		pgIdent(tmp),
	)
	if len(keyColumns) > 0 {
		assigns := updateAssignments(columns, keyColumns)
		if len(assigns) == 0 {
			insert += fmt.Sprintf("\nON CONFLICT (%s) DO NOTHING", strings.Join(mapIdent(keyColumns), ","))
		} else {
			insert += fmt.Sprintf(
				"\nON CONFLICT (%s) DO UPDATE SET %s",
				strings.Join(mapIdent(keyColumns), ","),
				strings.Join(assigns, ", "),
			)
		}
	}

	tag, err := conn.Exec(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("upsert phase: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReplaceAll swaps the table's contents for the given rows in one
// transaction, so readers never observe a half-replaced table.
func (r *Repository) ReplaceAll(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	fqTable := pgFQN(table)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM "+fqTable); err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}
	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, copyErr(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}
	return n, nil
}

// QueryRows reads the given columns from the table in storage order.
func (r *Repository) QueryRows(ctx context.Context, table string, columns []string) ([][]any, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(mapIdent(columns), ","), pgFQN(table))
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// updateAssignments generates "col = EXCLUDED.col" for every non-key column.
func updateAssignments(columns, keyColumns []string) []string {
	keySet := make(map[string]struct{}, len(keyColumns))
	for _, k := range keyColumns {
		keySet[k] = struct{}{}
	}
	var out []string
	for _, c := range columns {
		if _, isKey := keySet[c]; isKey {
			continue
		}
		out = append(out, fmt.Sprintf("%s = EXCLUDED.%s", pgIdent(c), pgIdent(c)))
	}
	return out
}

// copyErr surfaces the server-side detail of a failed COPY when present,
// which names the offending row instead of a bare protocol error.
func copyErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("copy: %s (%s)", pgErr.Detail, pgErr.SQLState())
	}
	return fmt.Errorf("copy: %w", err)
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.table_schemes"
// to "public"."table_schemes". If no dot is present, returns a single quoted
// ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
