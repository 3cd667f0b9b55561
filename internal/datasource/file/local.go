// Package file reads reporting dumps from the local filesystem.
//
// This is the common path in production: department exports land in a drop
// directory (one CSV per source system) and the pipeline is pointed at it.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local is a data source backed by a single file on disk.
type Local struct{ path string }

// NewLocal returns a Local source bound to path. The value is safe for
// concurrent use; each Open call opens the file independently.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the filesystem path this source reads from.
func (l *Local) Path() string { return l.path }

// Open opens the file for reading.
//
// If ctx is already canceled the filesystem is not touched and the context
// error is returned. Filesystem errors are wrapped with the path but remain
// inspectable via errors.Is (e.g. os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// ListCSV returns the paths of all regular *.csv files directly under dir,
// sorted by name. Subdirectories are not descended into: drop directories
// are flat by convention, and archived runs live in subfolders that must
// not be re-ingested.
func ListCSV(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
