// Package bytescodec implements the "bytes" array-to-bytes codec: the
// serializer that turns fixed-width decoded array elements into a flat
// byte stream, converting endianness as configured.
package bytescodec

import (
	"context"

	"github.com/zarrs-go/zarrcore/byterange"
	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/subset"
	"github.com/zarrs-go/zarrcore/zerr"
)

const ID = "bytes"

// Codec is the "bytes" array-to-bytes codec. Endianness defaults to
// little-endian when the configuration has no "endian" key, and makes no
// difference for single-byte types.
type Codec struct {
	Endianness chunktype.Endianness
}

// New builds a Codec for the given endianness.
func New(endian chunktype.Endianness) *Codec {
	return &Codec{Endianness: endian}
}

// FromConfig builds a Codec from a zarr.json "bytes" codec configuration
// object: {"endian": "little"|"big"}.
func FromConfig(config map[string]interface{}) (interface{}, error) {
	endian := chunktype.LittleEndian
	if raw, ok := config["endian"]; ok {
		s, _ := raw.(string)
		switch s {
		case "little", "":
			endian = chunktype.LittleEndian
		case "big":
			endian = chunktype.BigEndian
		default:
			return nil, zerr.Metadata("bytes codec: unknown endian %q", s)
		}
	}
	return New(endian), nil
}

func init() {
	codec.Default.Register(ID, FromConfig, nil, []string{"bytes.codec"})
}

func (c *Codec) ID() string { return ID }

func (c *Codec) EncodedSize(rep chunktype.ChunkRep) (int64, bool) {
	size := rep.DataType.ElementSize()
	if size.IsUnbounded() {
		return 0, false
	}
	return int64(rep.NumElements()) * int64(size.Bytes()), true
}

func (c *Codec) Encode(ctx context.Context, decoded chunktype.ArrayBytes, rep chunktype.ChunkRep) ([]byte, error) {
	if decoded.IsVariable() {
		return nil, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(ID)
	}
	elemSize := rep.DataType.ElementSize()
	if elemSize.IsUnbounded() {
		return nil, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(ID)
	}
	n := elemSize.Bytes()
	in := decoded.Fixed()
	want := int(rep.NumElements()) * n
	if len(in) != want {
		return nil, zerr.Codec(zerr.DecodedSizeMismatch(want, len(in))).WithCodec(ID)
	}
	if n == 1 {
		out := make([]byte, len(in))
		copy(out, in)
		return out, nil
	}
	if !rep.DataType.IsEndianSensitive() {
		out := make([]byte, len(in))
		copy(out, in)
		return out, nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	if c.Endianness != chunktype.NativeEndian {
		swapInPlace(out, n)
	}
	return out, nil
}

func (c *Codec) Decode(ctx context.Context, encoded []byte, rep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	elemSize := rep.DataType.ElementSize()
	if elemSize.IsUnbounded() {
		return chunktype.ArrayBytes{}, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(ID)
	}
	n := elemSize.Bytes()
	want := int(rep.NumElements()) * n
	if len(encoded) != want {
		return chunktype.ArrayBytes{}, zerr.Codec(zerr.DecodedSizeMismatch(want, len(encoded))).WithCodec(ID)
	}
	out := make([]byte, len(encoded))
	copy(out, encoded)
	if n > 1 && rep.DataType.IsEndianSensitive() && c.Endianness != chunktype.NativeEndian {
		swapInPlace(out, n)
	}
	return chunktype.NewFixedArrayBytes(out), nil
}

func swapInPlace(b []byte, stride int) {
	for off := 0; off+stride <= len(b); off += stride {
		lo, hi := off, off+stride-1
		for lo < hi {
			b[lo], b[hi] = b[hi], b[lo]
			lo++
			hi--
		}
	}
}

// PartialDecoder implements codec.ArrayToBytesCodec: since "bytes" is a
// fixed-stride transform, a subset of elements maps to a fixed byte range,
// so ranged reads go straight to the underlying BytesPartialDecoder
// instead of decoding the whole chunk.
func (c *Codec) PartialDecoder(ctx context.Context, encoded partial.BytesPartialDecoder, rep chunktype.ChunkRep) (partial.ArrayPartialDecoder, error) {
	elemSize := rep.DataType.ElementSize()
	if elemSize.IsUnbounded() {
		return nil, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(ID)
	}
	return &partialDecoder{c: c, encoded: encoded, rep: rep, elemSize: elemSize.Bytes()}, nil
}

type partialDecoder struct {
	c        *Codec
	encoded  partial.BytesPartialDecoder
	rep      chunktype.ChunkRep
	elemSize int
}

func (p *partialDecoder) DecodePartial(ctx context.Context, subsets []subset.Subset) ([]chunktype.ArrayBytes, error) {
	out := make([]chunktype.ArrayBytes, len(subsets))
	for i, s := range subsets {
		runs := subset.Runs(s, p.rep.Shape)
		ranges := make([]byterange.Range, len(runs))
		for j, run := range runs {
			start := run.LinearStart * uint64(p.elemSize)
			length := run.Length * uint64(p.elemSize)
			ranges[j] = byterange.FromStart(int64(start), int64(length))
		}
		parts, err := p.encoded.DecodePartial(ctx, ranges)
		if err != nil {
			return nil, err
		}
		raw := make([]byte, 0, int(s.NumElements())*p.elemSize)
		for _, part := range parts {
			raw = append(raw, part...)
		}
		if p.elemSize > 1 && p.rep.DataType.IsEndianSensitive() && p.c.Endianness != chunktype.NativeEndian {
			swapInPlace(raw, p.elemSize)
		}
		out[i] = chunktype.NewFixedArrayBytes(raw)
	}
	return out, nil
}
