// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories and DDL bootstrappers with the
// storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "postgres" (internal/storage/postgres)
//   - "sqlite"   (internal/storage/sqlite)
//   - "mssql"    (internal/storage/mssql)
//   - "mysql"    (internal/storage/mysql)
//
// Typical usage (in cmd/jjm/main.go or a similar wiring layer):
//
//	import (
//	    _ "github.com/shiv0924/jjm-platform/internal/storage/all" // enable all backends
//
//	    "github.com/shiv0924/jjm-platform/internal/storage"
//	)
//
//	repo, err := storage.New(ctx, storage.Config{
//	    Kind: job.Storage.Kind,
//	    DSN:  job.Storage.DB.DSN,
//	})
//
// A binary that supports only a subset of backends can define alternative
// wiring packages that import just the backends it needs instead of this
// package.
package all

import (
	_ "github.com/shiv0924/jjm-platform/internal/storage/mssql"
	_ "github.com/shiv0924/jjm-platform/internal/storage/mysql"
	_ "github.com/shiv0924/jjm-platform/internal/storage/postgres"
	_ "github.com/shiv0924/jjm-platform/internal/storage/sqlite"
)
