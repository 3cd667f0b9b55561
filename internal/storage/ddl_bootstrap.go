package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/shiv0924/jjm-platform/internal/ddl"
)

// DDLBootstrapper is a backend-specific function that creates the four output
// tables via repo.Exec when they do not exist yet. Backends register their
// implementation for a storage kind at init time; most of them only differ in
// the dialect handed to ApplyFixedDDL.
type DDLBootstrapper func(ctx context.Context, repo Repository, tablePrefix string) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for the given storage
// kind. It is typically called from backend packages' init() functions.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTables locates the DDLBootstrapper for kind and invokes it. Callers
// do not need to know which backend they are using; they pass the kind from
// config and the already-open Repository.
func EnsureTables(ctx context.Context, kind string, repo Repository, tablePrefix string) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, tablePrefix)
}

// ApplyFixedDDL renders CREATE TABLE statements for all four output tables in
// the given dialect and executes them. Backends whose DDL needs nothing
// beyond dialect quoting use this directly as their bootstrapper body.
func ApplyFixedDDL(ctx context.Context, repo Repository, dialect ddl.Dialect, tablePrefix string) error {
	for _, def := range Tables(tablePrefix) {
		stmt, err := ddl.BuildCreateTableSQL(dialect, def)
		if err != nil {
			return fmt.Errorf("render DDL for %s: %w", def.Name, err)
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", def.Name, err)
		}
	}
	return nil
}
