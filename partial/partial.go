// Package partial defines the partial-decoder/partial-encoder stack
// interfaces that let a codec chain read or write less than a whole
// chunk. Each codec in a chain wraps the partial decoder of the codec
// beneath it, rather than decoding a whole compressed blob up front.
package partial

import (
	"context"

	"github.com/zarrs-go/zarrcore/byterange"
	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/subset"
)

// BytesPartialDecoder pulls byte ranges out of one encoded representation
// (a chunk, or an inner-chunk within a shard) without decoding the whole
// thing. The outermost one is usually backed directly by a store key; each
// bytes-to-bytes codec in the chain wraps the one beneath it.
type BytesPartialDecoder interface {
	// DecodePartial resolves each range against the encoded value. A
	// range past the end of the value is an error; ranges are not
	// required to be sorted or disjoint.
	DecodePartial(ctx context.Context, ranges []byterange.Range) ([][]byte, error)

	// Size returns the total encoded length, when known up front (it may
	// require a store round trip).
	Size(ctx context.Context) (int64, error)
}

// BytesPartialEncoder writes byte ranges into one encoded representation
// in place. No type in this module implements it; sharding.Updater
// rewrites a whole shard with a single Set.
type BytesPartialEncoder interface {
	EncodePartial(ctx context.Context, writes []byterange.Range, values [][]byte) error

	// Erase removes the whole encoded value, used when a shard's last
	// inner chunk is removed.
	Erase(ctx context.Context) error
}

// ArrayPartialDecoder decodes only the requested subsets of one chunk's
// decoded representation. decodedRep describes the full chunk (the subsets
// passed to DecodePartial are chunk-local, i.e. already translated by the
// array facade).
type ArrayPartialDecoder interface {
	DecodePartial(ctx context.Context, subsets []subset.Subset) ([]chunktype.ArrayBytes, error)
}

// ArrayPartialEncoder writes only the requested subsets of one chunk's
// decoded representation. No type in this module implements it, and no
// write path uses it.
type ArrayPartialEncoder interface {
	EncodePartial(ctx context.Context, subsets []subset.Subset, values []chunktype.ArrayBytes) error
}

// Decoder is the minimal "decode the whole thing" operation every codec
// must support even when it has no efficient partial path; DefaultArrayPartialDecoder
// and DefaultBytesPartialDecoder are built from one.
type Decoder interface {
	Decode(ctx context.Context) ([]byte, error)
}
