// Package arraytoarray implements the array-to-array codecs: transpose,
// bitround, fixedscaleoffset, and squeeze.
package arraytoarray

import (
	"context"

	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/subset"
	"github.com/zarrs-go/zarrcore/zerr"
)

const TransposeID = "transpose"

// Transpose permutes a chunk's dimensions. Order[i] is the source
// dimension that becomes dimension i of the encoded representation
// (numpy.transpose convention).
type Transpose struct {
	Order []int
}

func NewTranspose(order []int) *Transpose {
	o := make([]int, len(order))
	copy(o, order)
	return &Transpose{Order: o}
}

func transposeFromConfig(config map[string]interface{}) (interface{}, error) {
	raw, ok := config["order"]
	if !ok {
		return nil, zerr.Metadata("transpose codec: missing order")
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, zerr.Metadata("transpose codec: order must be an array")
	}
	order := make([]int, len(items))
	for i, it := range items {
		order[i] = intFromConfig(it)
	}
	return NewTranspose(order), nil
}

func intFromConfig(raw interface{}) int {
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func init() {
	codec.Default.Register(TransposeID, transposeFromConfig, nil, []string{"transpose"})
}

func (t *Transpose) ID() string { return TransposeID }

func (t *Transpose) EncodedRepresentation(decodedRep chunktype.ChunkRep) (chunktype.ChunkRep, error) {
	if len(t.Order) != len(decodedRep.Shape) {
		return chunktype.ChunkRep{}, zerr.Shape("transpose codec: order length %d does not match %d dimensions", len(t.Order), len(decodedRep.Shape))
	}
	shape := make([]uint64, len(t.Order))
	for i, src := range t.Order {
		shape[i] = decodedRep.Shape[src]
	}
	return decodedRep.WithShape(shape), nil
}

func (t *Transpose) Encode(ctx context.Context, decoded chunktype.ArrayBytes, decodedRep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	return t.permute(decoded, decodedRep, t.Order)
}

func (t *Transpose) Decode(ctx context.Context, encoded chunktype.ArrayBytes, decodedRep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	inverse := make([]int, len(t.Order))
	for i, src := range t.Order {
		inverse[src] = i
	}
	encodedRep, err := t.EncodedRepresentation(decodedRep)
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}
	return t.permute(encoded, encodedRep, inverse)
}

// permute re-strides a C-order buffer: out's dimension i comes from in's
// dimension order[i]. Works for both Encode (order = t.Order, in shaped
// decodedRep) and Decode (order = inverse permutation, in shaped
// encodedRep) since permutation is its own category of operation in both
// directions, just with a different order slice.
func (t *Transpose) permute(in chunktype.ArrayBytes, inRep chunktype.ChunkRep, order []int) (chunktype.ArrayBytes, error) {
	if in.IsVariable() {
		return chunktype.ArrayBytes{}, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(TransposeID)
	}
	elemSize := inRep.DataType.ElementSize()
	if elemSize.IsUnbounded() {
		return chunktype.ArrayBytes{}, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(TransposeID)
	}
	n := elemSize.Bytes()
	inShape := inRep.Shape
	outShape := make([]uint64, len(order))
	for i, src := range order {
		outShape[i] = inShape[src]
	}

	data := in.Fixed()
	want := int(inRep.NumElements()) * n
	if len(data) != want {
		return chunktype.ArrayBytes{}, zerr.Codec(zerr.DecodedSizeMismatch(want, len(data))).WithCodec(TransposeID)
	}

	out := make([]byte, len(data))
	total := inRep.NumElements()
	for linear := uint64(0); linear < total; linear++ {
		inIdx := subset.UnravelIndex(linear, inShape)
		outIdx := make([]uint64, len(order))
		for i, src := range order {
			outIdx[i] = inIdx[src]
		}
		outLinear := subset.RavelIndices(outIdx, outShape)
		copy(out[outLinear*uint64(n):(outLinear+1)*uint64(n)], data[linear*uint64(n):(linear+1)*uint64(n)])
	}
	return chunktype.NewFixedArrayBytes(out), nil
}

// PartialDecoder decodes the whole chunk via the default array partial
// decoder: a coordinate permutation turns a hyper-rectangle subset in the
// encoded representation's coordinate frame into a (generally
// non-contiguous) set of positions in the decoded frame, so a full decode
// is the simplest correct behaviour rather than a specialised partial
// path.
func (t *Transpose) PartialDecoder(inner partial.ArrayPartialDecoder, decodedRep chunktype.ChunkRep) partial.ArrayPartialDecoder {
	return partial.NewDefaultArrayPartialDecoder(transposeDecoder{t: t, inner: inner, decodedRep: decodedRep}, decodedRep, elemSizeOrZero(decodedRep))
}

func elemSizeOrZero(rep chunktype.ChunkRep) int {
	size := rep.DataType.ElementSize()
	if size.IsUnbounded() {
		return 0
	}
	return size.Bytes()
}

type transposeDecoder struct {
	t          *Transpose
	inner      partial.ArrayPartialDecoder
	decodedRep chunktype.ChunkRep
}

func (d transposeDecoder) Decode(ctx context.Context) (chunktype.ArrayBytes, error) {
	encodedRep, err := d.t.EncodedRepresentation(d.decodedRep)
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}
	whole := subset.FromShape(encodedRep.Shape)
	parts, err := d.inner.DecodePartial(ctx, []subset.Subset{whole})
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}
	return d.t.Decode(ctx, parts[0], d.decodedRep)
}
