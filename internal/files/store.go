package files

import (
	"context"
	"time"
)

// FileInfo describes one file available in a store.
type FileInfo struct {
	// Name is the base file name, e.g. 01072024.csv.
	Name string
	// Handle is what Fetch needs to retrieve the bytes: a path, object key or file id.
	Handle string
	Size   int64
	// ModTime is zero when the backend does not report it.
	ModTime time.Time
	// Version is an etag, blob sha or generation when the backend provides one.
	Version string
}

// Store lists and fetches source files. Implementations must return an
// errors.AppError of type SOURCE_UNAVAILABLE when the backend cannot be
// reached or answers with a non-success status.
type Store interface {
	// Backend names the implementation for logs and diagnostics.
	Backend() string
	// List returns the files directly under dir.
	List(ctx context.Context, dir string) ([]FileInfo, error)
	// Fetch returns the full contents of the file behind handle.
	Fetch(ctx context.Context, handle string) ([]byte, error)
}
