// Package storage provides the object-store gateway that owns the canonical
// documents/{id}/... layout, plus the ObjectStore backends it runs on.
package storage

import "context"

// ObjectStore is the minimal contract the pipeline needs from a blob backend.
// Implementations: GCSStore (production) and MemoryStore (tests, local dev).
type ObjectStore interface {
	// Put writes an object unconditionally.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// PutIf writes an object only if its current generation matches gen.
	// gen == 0 requires the object to not exist. A lost race returns an error
	// wrapping apperr.ErrPreconditionFailed.
	PutIf(ctx context.Context, key string, data []byte, contentType string, gen int64) error

	// Get returns the object's bytes and current generation. A missing key
	// returns an apperr.NotFoundError.
	Get(ctx context.Context, key string) ([]byte, int64, error)

	// List returns one page of keys matching the query. Callers must follow
	// Truncated/NextCursor rather than assume a single exhaustive page.
	List(ctx context.Context, q ListQuery) (*ListResult, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ListQuery selects a page of object keys.
type ListQuery struct {
	Prefix string
	// Delimiter collapses keys sharing a segment into Prefixes entries,
	// giving directory-style listings when set to "/".
	Delimiter string
	// MaxKeys is the page size; 0 means the backend default.
	MaxKeys int
	// Cursor continues a prior truncated listing.
	Cursor string
}

// ListResult is one page of a listing.
type ListResult struct {
	Keys       []string
	Prefixes   []string
	Truncated  bool
	NextCursor string
}

const defaultPageSize = 1000
