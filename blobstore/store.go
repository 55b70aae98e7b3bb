package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for placing immutable data blobs (snapshots).
// Blobs are written and read whole; there is no partial update.
type Store interface {
	// Put writes a blob under the given name, replacing any previous blob
	// with that name.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads the blob with the given name.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes the blob with the given name.
	// Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
