// Package storage holds the storage-agnostic persistence contracts: the
// Repository interface the pipeline writes through, a registry-based factory
// for the concrete backends, the fixed definitions of the four reconciled
// output tables, and the save/load operations over them.
//
// Backends register themselves from init(); importing storage/all (usually
// as a blank import in the wiring layer) makes every built-in backend
// available, and callers stay backend-agnostic from there on.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the surface a storage backend must provide. BulkUpsert is
// keyed: new keys insert, existing keys have their non-key columns
// overwritten. ReplaceAll empties the table before writing. Each call
// owns its table for the duration of the write; the pipeline performs no
// locking of its own.
type Repository interface {
	BulkUpsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error)
	ReplaceAll(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	QueryRows(ctx context.Context, table string, columns []string) ([][]any, error)
	Exec(ctx context.Context, stmt string) error
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string // "postgres", "sqlite", "mssql" or "mysql"
	DSN  string
}

// Factory constructs a Repository for one storage kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend constructor available under the given kind,
// replacing any previous registration. Backends call it from init().
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// Kinds returns the registered backend names, sorted.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Repository for cfg.Kind. The caller owns the returned
// repository and must Close it.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return fn(ctx, cfg)
}
