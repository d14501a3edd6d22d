package partial

import (
	"context"
	"sync"

	"github.com/zarrs-go/zarrcore/byterange"
	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/subset"
)

// DefaultBytesPartialDecoder adapts a plain Decoder (decode the whole
// value) into a BytesPartialDecoder by decoding once and slicing the
// result in memory. It is the fallback every bytes-to-bytes codec gets for
// free; codecs with a cheaper range-native path (most notably "bytes" over
// a store that itself supports ranged GET) implement BytesPartialDecoder
// directly instead of wrapping this type.
//
// The decode is memoised for the lifetime of the DefaultBytesPartialDecoder
// value: construct a fresh one per logical read if the underlying source
// may change between reads.
type DefaultBytesPartialDecoder struct {
	decoder Decoder

	once    sync.Once
	decoded []byte
	err     error
}

// NewDefaultBytesPartialDecoder wraps decoder.
func NewDefaultBytesPartialDecoder(decoder Decoder) *DefaultBytesPartialDecoder {
	return &DefaultBytesPartialDecoder{decoder: decoder}
}

func (d *DefaultBytesPartialDecoder) resolve(ctx context.Context) ([]byte, error) {
	d.once.Do(func() {
		d.decoded, d.err = d.decoder.Decode(ctx)
	})
	return d.decoded, d.err
}

func (d *DefaultBytesPartialDecoder) Size(ctx context.Context) (int64, error) {
	b, err := d.resolve(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

func (d *DefaultBytesPartialDecoder) DecodePartial(ctx context.Context, ranges []byterange.Range) ([][]byte, error) {
	b, err := d.resolve(ctx)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, end, err := r.Resolve(int64(len(b)))
		if err != nil {
			return nil, err
		}
		chunk := make([]byte, end-start)
		copy(chunk, b[start:end])
		out[i] = chunk
	}
	return out, nil
}

var _ BytesPartialDecoder = (*DefaultBytesPartialDecoder)(nil)

// ArrayDecoder decodes a chunk's full ArrayBytes given its representation.
type ArrayDecoder interface {
	Decode(ctx context.Context) (chunktype.ArrayBytes, error)
}

// DefaultArrayPartialDecoder adapts an ArrayDecoder into an
// ArrayPartialDecoder by decoding the full chunk once and slicing out each
// requested subset with subset.ExtractRegion. This is the "decode
// everything, not just the range" fallback for codecs without a native
// partial path (e.g. any compressor wrapped directly as bytes-to-bytes
// with no seekable frame format).
type DefaultArrayPartialDecoder struct {
	decoder   ArrayDecoder
	rep       chunktype.ChunkRep
	elemSize  int

	once    sync.Once
	decoded chunktype.ArrayBytes
	err     error
}

// NewDefaultArrayPartialDecoder wraps decoder. rep is the full chunk's
// representation; elemSize is the fixed per-element byte size (callers
// must not use this type for variable-length data types, which have no
// fixed stride to slice by).
func NewDefaultArrayPartialDecoder(decoder ArrayDecoder, rep chunktype.ChunkRep, elemSize int) *DefaultArrayPartialDecoder {
	return &DefaultArrayPartialDecoder{decoder: decoder, rep: rep, elemSize: elemSize}
}

func (d *DefaultArrayPartialDecoder) resolve(ctx context.Context) (chunktype.ArrayBytes, error) {
	d.once.Do(func() {
		d.decoded, d.err = d.decoder.Decode(ctx)
	})
	return d.decoded, d.err
}

func (d *DefaultArrayPartialDecoder) DecodePartial(ctx context.Context, subsets []subset.Subset) ([]chunktype.ArrayBytes, error) {
	full, err := d.resolve(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]chunktype.ArrayBytes, len(subsets))
	for i, s := range subsets {
		region := subset.ExtractRegion(full.Fixed(), d.elemSize, d.rep.Shape, s)
		out[i] = chunktype.NewFixedArrayBytes(region)
	}
	return out, nil
}

var _ ArrayPartialDecoder = (*DefaultArrayPartialDecoder)(nil)
