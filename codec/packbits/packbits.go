// Package packbits implements the "packbits" array-to-bytes codec: each
// boolean element packs into one bit, eight elements per output byte.
package packbits

import (
	"context"

	"github.com/zarrs-go/zarrcore/byterange"
	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/zerr"
)

const ID = "packbits"

// Codec packs/unpacks boolean array elements eight to a byte, LSB first.
type Codec struct {
	// PaddingEncoding, if true, writes a leading byte with the number of
	// padding bits in the final byte, for boolean counts that are not a
	// multiple of eight.
	PaddingEncoding bool
}

func New() *Codec { return &Codec{PaddingEncoding: true} }

func FromConfig(map[string]interface{}) (interface{}, error) { return New(), nil }

func init() {
	codec.Default.Register(ID, FromConfig, nil, []string{"packbits"})
}

func (c *Codec) ID() string { return ID }

func (c *Codec) EncodedSize(rep chunktype.ChunkRep) (int64, bool) {
	if rep.DataType.Kind() != chunktype.KindBool {
		return 0, false
	}
	n := rep.NumElements()
	packed := (n + 7) / 8
	header := int64(0)
	if c.PaddingEncoding {
		header = 1
	}
	return int64(packed) + header, true
}

func (c *Codec) Encode(ctx context.Context, decoded chunktype.ArrayBytes, rep chunktype.ChunkRep) ([]byte, error) {
	if rep.DataType.Kind() != chunktype.KindBool {
		return nil, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(ID)
	}
	in := decoded.Fixed()
	n := len(in)
	if n != int(rep.NumElements()) {
		return nil, zerr.Codec(zerr.DecodedSizeMismatch(int(rep.NumElements()), n)).WithCodec(ID)
	}
	packedLen := (n + 7) / 8
	pad := 0
	if c.PaddingEncoding {
		pad = 1
	}
	out := make([]byte, pad+packedLen)
	if c.PaddingEncoding {
		padBits := (8 - n%8) % 8
		out[0] = byte(padBits)
	}
	body := out[pad:]
	for i, b := range in {
		if b != 0 {
			body[i/8] |= 1 << uint(i%8)
		}
	}
	return out, nil
}

func (c *Codec) Decode(ctx context.Context, encoded []byte, rep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	if rep.DataType.Kind() != chunktype.KindBool {
		return chunktype.ArrayBytes{}, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(ID)
	}
	body := encoded
	if c.PaddingEncoding {
		if len(encoded) < 1 {
			return chunktype.ArrayBytes{}, zerr.Codec(zerr.ErrTruncated).WithCodec(ID)
		}
		body = encoded[1:]
	}
	n := int(rep.NumElements())
	want := (n + 7) / 8
	if len(body) != want {
		return chunktype.ArrayBytes{}, zerr.Codec(zerr.DecodedSizeMismatch(want, len(body))).WithCodec(ID)
	}
	out := make([]byte, n)
	for i := range out {
		if body[i/8]&(1<<uint(i%8)) != 0 {
			out[i] = 1
		}
	}
	return chunktype.NewFixedArrayBytes(out), nil
}

func (c *Codec) PartialDecoder(ctx context.Context, encoded partial.BytesPartialDecoder, rep chunktype.ChunkRep) (partial.ArrayPartialDecoder, error) {
	return partial.NewDefaultArrayPartialDecoder(chainAdapter{c: c, encoded: encoded, rep: rep}, rep, 1), nil
}

type chainAdapter struct {
	c       *Codec
	encoded partial.BytesPartialDecoder
	rep     chunktype.ChunkRep
}

func (a chainAdapter) Decode(ctx context.Context) (chunktype.ArrayBytes, error) {
	parts, err := a.encoded.DecodePartial(ctx, []byterange.Range{byterange.Full()})
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}
	return a.c.Decode(ctx, parts[0], a.rep)
}
