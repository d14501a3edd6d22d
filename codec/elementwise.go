package codec

import (
	"context"

	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/subset"
)

// elementwiseDecodeFunc decodes one subset's worth of array bytes in
// place, given the representation of just that subset. bitround and
// fixedscaleoffset use this: both operate element-by-element and never
// change shape or position, so they can decode whatever sub-region their
// inner decoder already sliced out instead of decoding the whole chunk.
type elementwiseDecodeFunc func(ctx context.Context, encoded chunktype.ArrayBytes, rep chunktype.ChunkRep) (chunktype.ArrayBytes, error)

type elementwisePartialDecoder struct {
	inner   partial.ArrayPartialDecoder
	decode  elementwiseDecodeFunc
	dt      chunktype.DataType
}

// NewElementwisePartialDecoder builds an ArrayPartialDecoder for a codec
// whose Decode is a pure per-element map that does not depend on an
// element's neighbours or position (shape- and position-preserving).
// inner supplies the still-encoded bytes for exactly the requested
// subsets; decode is applied to each one independently.
func NewElementwisePartialDecoder(inner partial.ArrayPartialDecoder, decode elementwiseDecodeFunc, dt chunktype.DataType) partial.ArrayPartialDecoder {
	return &elementwisePartialDecoder{inner: inner, decode: decode, dt: dt}
}

func (d *elementwisePartialDecoder) DecodePartial(ctx context.Context, subsets []subset.Subset) ([]chunktype.ArrayBytes, error) {
	encoded, err := d.inner.DecodePartial(ctx, subsets)
	if err != nil {
		return nil, err
	}
	out := make([]chunktype.ArrayBytes, len(subsets))
	for i, s := range subsets {
		rep := chunktype.ChunkRep{Shape: s.Shape, DataType: d.dt}
		decoded, err := d.decode(ctx, encoded[i], rep)
		if err != nil {
			return nil, err
		}
		out[i] = decoded
	}
	return out, nil
}
