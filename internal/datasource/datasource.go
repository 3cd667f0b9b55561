// Package datasource abstracts where a reporting dump comes from.
//
// The reconciliation pipeline does not care whether a CSV dump was dropped
// into a local directory by an operator or fetched from a department portal
// over HTTP; it only needs a stream of bytes. Implementations live in the
// file and httpds subpackages.
package datasource

import (
	"context"
	"io"
)

// Source yields the raw bytes of one reporting dump. Open may be called more
// than once; each call returns an independent reader the caller must close.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
