package arraytoarray

import (
	"context"

	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
)

const SqueezeID = "squeeze"

// Squeeze removes every size-1 dimension from a chunk's shape. Since every
// element's position and byte content are unchanged (dropping a size-1
// axis never reorders elements), it gets an elementwise (shape-translating
// but content-identity) partial decoder.
type Squeeze struct{}

func NewSqueeze() *Squeeze { return &Squeeze{} }

func squeezeFromConfig(map[string]interface{}) (interface{}, error) { return NewSqueeze(), nil }

func init() {
	codec.Default.Register(SqueezeID, squeezeFromConfig, nil, []string{"squeeze"})
}

func (s *Squeeze) ID() string { return SqueezeID }

func (s *Squeeze) EncodedRepresentation(decodedRep chunktype.ChunkRep) (chunktype.ChunkRep, error) {
	shape := make([]uint64, 0, len(decodedRep.Shape))
	for _, d := range decodedRep.Shape {
		if d != 1 {
			shape = append(shape, d)
		}
	}
	return decodedRep.WithShape(shape), nil
}

// Encode and Decode are both the identity on the underlying byte buffer:
// removing or reinserting size-1 axes changes only the shape metadata
// carried alongside the buffer, never element order.
func (s *Squeeze) Encode(ctx context.Context, decoded chunktype.ArrayBytes, decodedRep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	return decoded, nil
}

func (s *Squeeze) Decode(ctx context.Context, encoded chunktype.ArrayBytes, decodedRep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	return encoded, nil
}

func (s *Squeeze) PartialDecoder(inner partial.ArrayPartialDecoder, decodedRep chunktype.ChunkRep) partial.ArrayPartialDecoder {
	// Subsets passed in are in the decoded (un-squeezed) coordinate
	// frame; since squeeze is a pure relabelling, the same linear
	// offsets apply in the encoded frame, so an elementwise pass-through
	// is correct as long as callers only ever request whole-chunk or
	// already-linear-compatible subsets. Shape-changing codecs' subset
	// translation across a squeeze boundary is handled by the array
	// facade, which knows the decoded shape on both sides.
	return codec.NewElementwisePartialDecoder(inner, func(ctx context.Context, encoded chunktype.ArrayBytes, rep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
		return encoded, nil
	}, decodedRep.DataType)
}
