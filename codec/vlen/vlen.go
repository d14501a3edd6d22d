// Package vlen implements the variable-length array-to-bytes codecs:
// vlen-utf8, vlen-bytes, the experimental "vlen" (data-type-agnostic),
// the numcodecs "vlen-array" alias, and a vlen_v2 compatibility codec for
// Zarr V2's object-array encoding. All four share one wire framing: a
// little-endian uint32 element count, then per element a little-endian
// uint32 byte length followed by the element's raw bytes.
package vlen

import (
	"context"
	"encoding/binary"

	"github.com/zarrs-go/zarrcore/byterange"
	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/subset"
	"github.com/zarrs-go/zarrcore/zerr"
)

const (
	VlenID      = "vlen"
	Utf8ID      = "vlen-utf8"
	BytesID     = "vlen-bytes"
	ArrayID     = "vlen-array"
	V2ID        = "vlen_v2"
)

// Codec implements every one of this package's ids identically: they
// differ only in which chunktype.Kind they accept, which is informational
// (the wire framing and the bytes themselves are identical either way, so
// neither Encode nor Decode branches on ID; Encode checks only that its
// input is variable-length array bytes).
type Codec struct {
	id string
}

func newCodec(id string) *Codec { return &Codec{id: id} }

func fromConfig(id string) func(map[string]interface{}) (interface{}, error) {
	return func(map[string]interface{}) (interface{}, error) { return newCodec(id), nil }
}

func init() {
	codec.Default.Register(VlenID, fromConfig(VlenID), nil, nil)
	codec.Default.Register(Utf8ID, fromConfig(Utf8ID), nil, []string{"vlen-utf8"})
	codec.Default.Register(BytesID, fromConfig(BytesID), nil, []string{"vlen-bytes"})
	codec.Default.Register(ArrayID, fromConfig(ArrayID), nil, []string{"vlen-array"})
	codec.Default.Register(V2ID, fromConfig(V2ID), nil, []string{"vlen_v2"})
}

func (c *Codec) ID() string { return c.id }

func (c *Codec) EncodedSize(chunktype.ChunkRep) (int64, bool) { return 0, false }

func (c *Codec) Encode(ctx context.Context, decoded chunktype.ArrayBytes, rep chunktype.ChunkRep) ([]byte, error) {
	if !decoded.IsVariable() {
		return nil, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(c.id)
	}
	n := decoded.NumElements()
	out := make([]byte, 4, 4+decoded.NumElements()*4+len(decoded.VariableData()))
	binary.LittleEndian.PutUint32(out, uint32(n))
	for i := 0; i < n; i++ {
		el := decoded.Element(i)
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(el)))
		out = append(out, lenBuf[:]...)
		out = append(out, el...)
	}
	return out, nil
}

func (c *Codec) Decode(ctx context.Context, encoded []byte, rep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	if len(encoded) < 4 {
		return chunktype.ArrayBytes{}, zerr.Codec(zerr.ErrTruncated).WithCodec(c.id)
	}
	n := int(binary.LittleEndian.Uint32(encoded))
	pos := 4
	offsets := make([]int64, n+1)
	var data []byte
	for i := 0; i < n; i++ {
		if pos+4 > len(encoded) {
			return chunktype.ArrayBytes{}, zerr.Codec(zerr.ErrTruncated).WithCodec(c.id)
		}
		elLen := int(binary.LittleEndian.Uint32(encoded[pos:]))
		pos += 4
		if pos+elLen > len(encoded) {
			return chunktype.ArrayBytes{}, zerr.Codec(zerr.ErrTruncated).WithCodec(c.id)
		}
		data = append(data, encoded[pos:pos+elLen]...)
		pos += elLen
		offsets[i+1] = offsets[i] + int64(elLen)
	}
	ab, err := chunktype.NewVariableArrayBytes(data, offsets)
	if err != nil {
		return chunktype.ArrayBytes{}, zerr.Codec(err).WithCodec(c.id)
	}
	return ab, nil
}

// PartialDecoder decodes the whole chunk once (variable-length elements
// have no fixed stride to slice by, so partial.DefaultArrayPartialDecoder's
// byte-region extraction does not apply) and memoises it, then gathers
// just the requested subset's elements by index on each call.
func (c *Codec) PartialDecoder(ctx context.Context, encoded partial.BytesPartialDecoder, rep chunktype.ChunkRep) (partial.ArrayPartialDecoder, error) {
	return &partialDecoder{c: c, encoded: encoded, rep: rep}, nil
}

type partialDecoder struct {
	c       *Codec
	encoded partial.BytesPartialDecoder
	rep     chunktype.ChunkRep

	decoded chunktype.ArrayBytes
	have    bool
}

func (p *partialDecoder) resolve(ctx context.Context) (chunktype.ArrayBytes, error) {
	if p.have {
		return p.decoded, nil
	}
	parts, err := p.encoded.DecodePartial(ctx, []byterange.Range{byterange.Full()})
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}
	ab, err := p.c.Decode(ctx, parts[0], p.rep)
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}
	p.decoded, p.have = ab, true
	return ab, nil
}

func (p *partialDecoder) DecodePartial(ctx context.Context, subsets []subset.Subset) ([]chunktype.ArrayBytes, error) {
	full, err := p.resolve(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]chunktype.ArrayBytes, len(subsets))
	for i, s := range subsets {
		n := int(s.NumElements())
		var data []byte
		offsets := make([]int64, 1, n+1)
		total := s.NumElements()
		for linear := uint64(0); linear < total; linear++ {
			rel := subset.UnravelIndex(linear, s.Shape)
			full2 := make([]uint64, len(rel))
			for d := range rel {
				full2[d] = s.Start[d] + rel[d]
			}
			idx := int(subset.RavelIndices(full2, p.rep.Shape))
			el := full.Element(idx)
			data = append(data, el...)
			offsets = append(offsets, offsets[len(offsets)-1]+int64(len(el)))
		}
		ab, err := chunktype.NewVariableArrayBytes(data, offsets)
		if err != nil {
			return nil, err
		}
		out[i] = ab
	}
	return out, nil
}
