// Package store defines the abstract byte-keyed object store that the
// codec chain and array facade read and write chunks through. Concrete
// object stores (filesystem, S3, HTTP, ...) are external collaborators;
// this package provides the trait plus an in-memory reference
// implementation used throughout the test suite.
package store

import (
	"context"

	"github.com/zarrs-go/zarrcore/byterange"
)

// PartialValue is the result of one ranged read: the decoded bytes, or
// absent if the key itself does not exist. A present key with a range past
// its end is a hard error, not an absent PartialValue.
type PartialValue struct {
	Bytes   []byte
	Present bool
}

// Readable is the subset of Store operations a read-only store supports.
type Readable interface {
	// Get returns the full value for key, or (nil, false) if absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// GetPartial resolves each requested range against key's value. An
	// absent key yields PartialValue{Present: false} for every range; a
	// range that overflows the value's length is an error.
	GetPartial(ctx context.Context, key string, ranges []byterange.Range) ([]PartialValue, error)

	// Size returns the length of key's value, or (0, false) if absent.
	Size(ctx context.Context, key string) (int64, bool, error)
}

// Listable is the subset of Store operations that enumerate keys.
type Listable interface {
	// List returns every key in the store.
	List(ctx context.Context) ([]string, error)

	// ListPrefix returns every key with the given prefix.
	ListPrefix(ctx context.Context, prefix string) ([]string, error)

	// ListDir returns the immediate children of prefix: keys directly under
	// it, and the immediate child prefixes (sub-"directories").
	ListDir(ctx context.Context, prefix string) (keys []string, prefixes []string, err error)
}

// PartialWrite is one (offset, bytes) fragment of a SetPartial call.
type PartialWrite struct {
	Offset int64
	Bytes  []byte
}

// Writable is the subset of Store operations that mutate the store.
type Writable interface {
	// Set replaces key's value atomically.
	Set(ctx context.Context, key string, value []byte) error

	// SetPartial writes each fragment at its offset. Implementations may
	// require the key to already exist and be large enough; callers that
	// need read-modify-write semantics take a Locks mutex around the whole operation themselves.
	SetPartial(ctx context.Context, key string, writes []PartialWrite) error

	// Erase deletes key. Erasing an absent key is not an error.
	Erase(ctx context.Context, key string) error

	// ErasePrefix deletes every key with the given prefix.
	ErasePrefix(ctx context.Context, prefix string) error
}

// Store is the full read+write+list capability set. Most concrete stores
// implement this; a read-only remote store would implement only Readable
// (+ Listable), which is why codec and array-layer code should accept the
// narrowest interface they need rather than *Store.
type Store interface {
	Readable
	Listable
	Writable
}
