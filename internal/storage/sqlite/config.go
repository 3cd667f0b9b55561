// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:jjm.db?cache=shared&_fk=1"
	//   "jjm.db" (interpreted by the driver)
	DSN string
}
