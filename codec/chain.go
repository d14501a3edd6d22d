package codec

import (
	"context"

	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/zerr"
)

// Chain is one chunk's full codec pipeline: zero or more array-to-array
// codecs, exactly one array-to-bytes codec, then zero or more
// bytes-to-bytes codecs, applied in that order on encode and reversed on
// decode.
type Chain struct {
	ArrayToArray []ArrayToArrayCodec
	ArrayToBytes ArrayToBytesCodec
	BytesToBytes []BytesToBytesCodec
}

// chunkReps returns the ChunkRep each stage of the chain
// operates on, outermost (original) first, ending with the representation
// the ArrayToBytesCodec consumes.
func (c Chain) chunkReps(decodedRep chunktype.ChunkRep) ([]chunktype.ChunkRep, error) {
	reps := make([]chunktype.ChunkRep, len(c.ArrayToArray)+1)
	reps[0] = decodedRep
	cur := decodedRep
	for i, aa := range c.ArrayToArray {
		next, err := aa.EncodedRepresentation(cur)
		if err != nil {
			return nil, zerr.Codec(err).WithCodec(aa.ID())
		}
		reps[i+1] = next
		cur = next
	}
	return reps, nil
}

// EncodedSize returns the chain's total encoded byte length for a chunk of
// decodedRep, if every stage's output size is determined by the
// representation alone (true for "bytes" + fixed-size bytes-to-bytes
// stages like the checksum codecs; false as soon as a general compressor
// is in the chain). The sharding codec uses this to size its index's
// fixed header region without having to encode a placeholder first.
func (c Chain) EncodedSize(decodedRep chunktype.ChunkRep) (int64, bool) {
	reps, err := c.chunkReps(decodedRep)
	if err != nil {
		return 0, false
	}
	innerRep := reps[len(reps)-1]
	size, ok := c.ArrayToBytes.EncodedSize(innerRep)
	if !ok {
		return 0, false
	}
	for _, bb := range c.BytesToBytes {
		size, ok = bb.EncodedSize(size)
		if !ok {
			return 0, false
		}
	}
	return size, true
}

// Encode runs decoded through the full chain, returning the final
// byte stream ready to write to a store key.
func (c Chain) Encode(ctx context.Context, decoded chunktype.ArrayBytes, decodedRep chunktype.ChunkRep) ([]byte, error) {
	reps, err := c.chunkReps(decodedRep)
	if err != nil {
		return nil, err
	}
	cur := decoded
	for i, aa := range c.ArrayToArray {
		cur, err = aa.Encode(ctx, cur, reps[i])
		if err != nil {
			return nil, zerr.Codec(err).WithCodec(aa.ID())
		}
	}
	innerRep := reps[len(reps)-1]
	encoded, err := c.ArrayToBytes.Encode(ctx, cur, innerRep)
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(c.ArrayToBytes.ID())
	}
	for _, bb := range c.BytesToBytes {
		encoded, err = bb.Encode(ctx, encoded)
		if err != nil {
			return nil, zerr.Codec(err).WithCodec(bb.ID())
		}
	}
	return encoded, nil
}

// Decode reverses Encode: strips bytes-to-bytes stages outermost-last,
// decodes the array-to-bytes stage, then reverses the array-to-array
// stages innermost-first.
func (c Chain) Decode(ctx context.Context, encoded []byte, decodedRep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	reps, err := c.chunkReps(decodedRep)
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}
	cur := encoded
	for i := len(c.BytesToBytes) - 1; i >= 0; i-- {
		bb := c.BytesToBytes[i]
		cur, err = bb.Decode(ctx, cur)
		if err != nil {
			return chunktype.ArrayBytes{}, zerr.Codec(err).WithCodec(bb.ID())
		}
	}
	innerRep := reps[len(reps)-1]
	ab, err := c.ArrayToBytes.Decode(ctx, cur, innerRep)
	if err != nil {
		return chunktype.ArrayBytes{}, zerr.Codec(err).WithCodec(c.ArrayToBytes.ID())
	}
	for i := len(c.ArrayToArray) - 1; i >= 0; i-- {
		aa := c.ArrayToArray[i]
		ab, err = aa.Decode(ctx, ab, reps[i])
		if err != nil {
			return chunktype.ArrayBytes{}, zerr.Codec(err).WithCodec(aa.ID())
		}
	}
	return ab, nil
}

// chainDecoder adapts a Chain's Decode into the partial.ArrayDecoder
// interface so DefaultArrayPartialDecoder can wrap a full chain the same
// way it wraps a single codec.
type chainDecoder struct {
	chain      Chain
	encoded    []byte
	decodedRep chunktype.ChunkRep
}

func (d chainDecoder) Decode(ctx context.Context) (chunktype.ArrayBytes, error) {
	return d.chain.Decode(ctx, d.encoded, d.decodedRep)
}

// PartialDecoder builds the partial decoder stack for a whole chain over
// one encoded chunk: bytes-to-bytes stages wrap a
// BytesPartialDecoder innermost-out, the array-to-bytes codec turns that
// into an ArrayPartialDecoder, and array-to-array stages wrap that
// outermost-in, composed in reverse order from the encode direction.
// bytesSource is the BytesPartialDecoder for the raw, fully-encoded chunk
// (typically backed directly by a store key range read).
func (c Chain) PartialDecoder(ctx context.Context, bytesSource partial.BytesPartialDecoder, decodedRep chunktype.ChunkRep) (partial.ArrayPartialDecoder, error) {
	reps, err := c.chunkReps(decodedRep)
	if err != nil {
		return nil, err
	}

	cur := bytesSource
	for i := len(c.BytesToBytes) - 1; i >= 0; i-- {
		cur = c.BytesToBytes[i].PartialDecoder(cur)
	}

	innerRep := reps[len(reps)-1]
	arrayDecoder, err := c.ArrayToBytes.PartialDecoder(ctx, cur, innerRep)
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(c.ArrayToBytes.ID())
	}

	for i := len(c.ArrayToArray) - 1; i >= 0; i-- {
		arrayDecoder = c.ArrayToArray[i].PartialDecoder(arrayDecoder, reps[i])
	}
	return arrayDecoder, nil
}
