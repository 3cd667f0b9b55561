// Package errors provides the error taxonomy for the reconciliation pipeline.
// Sentinel values support errors.Is checks across package boundaries; the
// typed wrappers carry enough context (source key, storage operation) for
// operators to act on a failure without reading stack traces.
package errors

import (
	"errors"
	"fmt"
)

// New is an alias for the standard library errors.New for convenience.
var New = errors.New

// Sentinel errors for the pipeline.
var (
	// ErrMissingCriticalSource indicates the mandatory scheme-master source
	// (imis_schemes) was absent or yielded no usable rows. Fatal: the pipeline
	// produces nothing without it.
	ErrMissingCriticalSource = errors.New("missing critical source: imis_schemes")

	// ErrUnparseableRow indicates a single row failed type coercion. Recovered
	// locally: the row is skipped for the operation at hand, never fatal.
	ErrUnparseableRow = errors.New("unparseable row")

	// ErrPersistenceFailure indicates a read or write against the storage
	// backend failed. The computed pipeline output is unaffected.
	ErrPersistenceFailure = errors.New("persistence failure")
)

// SourceError wraps a failure while acquiring or decoding one logical source.
type SourceError struct {
	Source string // logical source key, e.g. "imis_schemes"
	Err    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *SourceError) Unwrap() error { return e.Err }

// Is reports critical-source identity so that a wrapped imis_schemes failure
// matches ErrMissingCriticalSource.
func (e *SourceError) Is(target error) bool {
	if target == ErrMissingCriticalSource && e.Source == "imis_schemes" {
		return true
	}
	return false
}

// NewSourceError creates a SourceError for the given logical source.
func NewSourceError(source string, err error) *SourceError {
	return &SourceError{Source: source, Err: err}
}

// RowError wraps a row-level decode failure with its line number and reason.
type RowError struct {
	Line   int
	Reason string
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}

// Is implements errors.Is support.
func (e *RowError) Is(target error) bool {
	return target == ErrUnparseableRow
}

// NewRowError creates a RowError for the given line.
func NewRowError(line int, reason string) *RowError {
	return &RowError{Line: line, Reason: reason}
}

// StorageError wraps a storage backend failure with the operation and table.
type StorageError struct {
	Op    string // "upsert", "replace", "query", "ddl", "connect"
	Table string
	Err   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *StorageError) Unwrap() error { return e.Err }

// Is implements errors.Is support.
func (e *StorageError) Is(target error) bool {
	return target == ErrPersistenceFailure
}

// NewStorageError creates a StorageError for the given operation and table.
func NewStorageError(op, table string, err error) *StorageError {
	return &StorageError{Op: op, Table: table, Err: err}
}

// IsMissingCriticalSource reports whether err is (or wraps) the missing
// critical source condition.
func IsMissingCriticalSource(err error) bool {
	return errors.Is(err, ErrMissingCriticalSource)
}

// IsPersistenceFailure reports whether err is (or wraps) a storage failure.
func IsPersistenceFailure(err error) bool {
	return errors.Is(err, ErrPersistenceFailure)
}
