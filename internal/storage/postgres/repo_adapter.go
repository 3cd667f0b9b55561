// This adapter wires the Postgres backend into the storage-agnostic factory
// by registering a constructor at init time. The CLI obtains a Repository via
// storage.New(...) without importing this package directly; the blank import
// lives in storage/all.
//
// The adapter also registers the DDL bootstrapper for kind "postgres" so
// callers can create the output tables based only on the storage kind,
// without branching on the backend themselves.

package postgres

import (
	"context"

	"github.com/shiv0924/jjm-platform/internal/ddl"
	"github.com/shiv0924/jjm-platform/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// wrappedRepo implements storage.Repository by delegating to the concrete
// *postgres.Repository while providing a Close method that calls the close
// function returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Ensure wrappedRepo satisfies storage.Repository at compile time.
var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("postgres", func(ctx context.Context, repo storage.Repository, tablePrefix string) error {
		return storage.ApplyFixedDDL(ctx, repo, ddl.Postgres, tablePrefix)
	})
}
