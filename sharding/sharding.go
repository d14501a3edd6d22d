// Package sharding implements the sharding_indexed codec: an outer chunk
// packs a grid of inner chunks plus a binary index recording each inner
// chunk's byte range, so a reader can fetch one inner chunk without
// touching the rest of the shard.
package sharding

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/zarrs-go/zarrcore/byterange"
	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/subset"
	"github.com/zarrs-go/zarrcore/zerr"
)

const ID = "sharding_indexed"

// absentEntry is the (MAX_U64, MAX_U64) sentinel for a missing inner chunk.
const absentEntry = math.MaxUint64

// IndexLocation selects whether the binary index precedes or follows the
// inner chunk payloads within the outer chunk's encoded bytes.
type IndexLocation uint8

const (
	IndexStart IndexLocation = iota
	IndexEnd
)

// Codec is the sharding_indexed array-to-bytes codec.
type Codec struct {
	InnerChunkShape []uint64
	InnerCodecs     codec.Chain
	IndexCodecs     codec.Chain
	Location        IndexLocation
}

func New(innerShape []uint64, innerCodecs, indexCodecs codec.Chain, location IndexLocation) *Codec {
	shape := make([]uint64, len(innerShape))
	copy(shape, innerShape)
	return &Codec{InnerChunkShape: shape, InnerCodecs: innerCodecs, IndexCodecs: indexCodecs, Location: location}
}

func (c *Codec) ID() string { return ID }

// innerGridShape returns, per dimension, how many inner chunks tile the
// outer chunk -- outerShape[i] / innerShape[i], which the caller (or
// validate) must already have checked divides evenly.
func (c *Codec) innerGridShape(outerShape []uint64) []uint64 {
	grid := make([]uint64, len(outerShape))
	for i := range outerShape {
		grid[i] = outerShape[i] / c.InnerChunkShape[i]
	}
	return grid
}

func (c *Codec) numInnerChunks(outerShape []uint64) uint64 {
	n := uint64(1)
	for _, g := range c.innerGridShape(outerShape) {
		n *= g
	}
	return n
}

// validate checks the outer/inner shape divisibility invariant: the outer
// chunk shape must be an integer multiple of the inner chunk shape in
// every dimension.
func (c *Codec) validate(outerShape []uint64) error {
	if len(outerShape) != len(c.InnerChunkShape) {
		return zerr.Shape("sharding_indexed: outer chunk has %d dimensions, inner chunk shape has %d", len(outerShape), len(c.InnerChunkShape))
	}
	for i, o := range outerShape {
		inner := c.InnerChunkShape[i]
		if inner == 0 || o%inner != 0 {
			return zerr.Shape("sharding_indexed: outer dimension %d (%d) is not a multiple of inner dimension (%d)", i, o, inner)
		}
	}
	return nil
}

func (c *Codec) innerChunkRep(outerRep chunktype.ChunkRep) chunktype.ChunkRep {
	return outerRep.WithShape(c.InnerChunkShape)
}

func (c *Codec) indexRep(outerShape []uint64) chunktype.ChunkRep {
	n := c.numInnerChunks(outerShape)
	return chunktype.ChunkRep{
		Shape:    []uint64{n * 2},
		DataType: chunktype.New(chunktype.KindUint64),
	}
}

func (c *Codec) EncodedSize(chunktype.ChunkRep) (int64, bool) { return 0, false }

// indexHeaderSize returns the fixed encoded byte length of the index for a
// shard of this shape; it does not depend on the index's actual content,
// only on its element count, which EncodedSize is guaranteed to honour for
// the ("bytes" + fixed-size checksum) chain every realistic index_codecs
// configuration builds.
func (c *Codec) indexHeaderSize(outerShape []uint64) (int64, error) {
	size, ok := c.IndexCodecs.EncodedSize(c.indexRep(outerShape))
	if !ok {
		return 0, zerr.Invariant("sharding_indexed: index_codecs chain has no fixed encoded size")
	}
	return size, nil
}

func encodeIndex(entries []uint64) chunktype.ArrayBytes {
	out := make([]byte, len(entries)*8)
	for i, e := range entries {
		binary.LittleEndian.PutUint64(out[i*8:], e)
	}
	return chunktype.NewFixedArrayBytes(out)
}

func decodeIndex(ab chunktype.ArrayBytes) []uint64 {
	data := ab.Fixed()
	entries := make([]uint64, len(data)/8)
	for i := range entries {
		entries[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	return entries
}

// entrySpan returns, for inner chunk i (its flattened grid position),
// whether it is present and its (start, end) byte span within the outer
// chunk's encoded bytes.
func entrySpan(entries []uint64, i int) (byterange.Span, bool) {
	off, length := entries[2*i], entries[2*i+1]
	if off == absentEntry && length == absentEntry {
		return byterange.Span{}, false
	}
	return byterange.Span{int64(off), int64(off) + int64(length)}, true
}

// Encode builds the whole outer chunk's bytes by encoding each inner
// chunk that is not all-fill-value, laying out the index (fixed size,
// computed up front) and payload region according to Location, and
// filling absent entries with the (MAX_U64, MAX_U64) sentinel.
//
// Encode expects decoded to already be a full outer chunk's worth of
// array bytes (the array facade pads with fill value to the chunk
// boundary before calling any codec).
func (c *Codec) Encode(ctx context.Context, decoded chunktype.ArrayBytes, outerRep chunktype.ChunkRep) ([]byte, error) {
	if err := c.validate(outerRep.Shape); err != nil {
		return nil, err
	}
	elemSize := outerRep.DataType.ElementSize()
	if elemSize.IsUnbounded() {
		return nil, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(ID)
	}
	n := c.numInnerChunks(outerRep.Shape)
	grid := c.innerGridShape(outerRep.Shape)
	innerRep := c.innerChunkRep(outerRep)

	entries := make([]uint64, 2*n)
	for i := range entries {
		entries[i] = absentEntry
	}

	headerSize, err := c.indexHeaderSize(outerRep.Shape)
	if err != nil {
		return nil, err
	}

	var payload []byte
	for linear := uint64(0); linear < n; linear++ {
		gridIdx := subset.UnravelIndex(linear, grid)
		start := make([]uint64, len(gridIdx))
		for d := range gridIdx {
			start[d] = gridIdx[d] * c.InnerChunkShape[d]
		}
		region := subset.Subset{Start: start, Shape: c.InnerChunkShape}
		raw := subset.ExtractRegion(decoded.Fixed(), elemSize.Bytes(), outerRep.Shape, region)

		if isAllFillValue(raw, outerRep.FillValue) {
			continue
		}

		encoded, err := c.InnerCodecs.Encode(ctx, chunktype.NewFixedArrayBytes(raw), innerRep)
		if err != nil {
			return nil, zerr.Codec(err).WithCodec(ID)
		}

		localOffset := int64(len(payload))
		payload = append(payload, encoded...)
		shift := int64(0)
		if c.Location == IndexStart {
			shift = headerSize
		}
		entries[2*linear] = uint64(localOffset + shift)
		entries[2*linear+1] = uint64(len(encoded))
	}

	indexBytes, err := c.IndexCodecs.Encode(ctx, encodeIndex(entries), c.indexRep(outerRep.Shape))
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(ID)
	}
	if int64(len(indexBytes)) != headerSize {
		return nil, zerr.Invariant("sharding_indexed: index encoded to %d bytes, expected fixed size %d", len(indexBytes), headerSize)
	}

	var out []byte
	if c.Location == IndexStart {
		out = append(out, indexBytes...)
		out = append(out, payload...)
	} else {
		out = append(out, payload...)
		out = append(out, indexBytes...)
	}
	return out, nil
}

func isAllFillValue(raw []byte, fv chunktype.FillValue) bool {
	if fv.IsVariable() {
		return false
	}
	pattern := fv.Bytes()
	if len(pattern) == 0 {
		return false
	}
	for i := 0; i < len(raw); i += len(pattern) {
		end := i + len(pattern)
		if end > len(raw) {
			end = len(raw)
		}
		if string(raw[i:end]) != string(pattern[:end-i]) {
			return false
		}
	}
	return true
}

// readIndex fetches and decodes the index from a (possibly only
// partially-fetched) outer chunk's encoded bytes. An index at the start
// lets a reader stream it with a single prefix read; an index at the end
// needs two reads (or one size query plus one suffix read).
func (c *Codec) readIndex(ctx context.Context, src partial.BytesPartialDecoder, outerShape []uint64) ([]uint64, error) {
	headerSize, err := c.indexHeaderSize(outerShape)
	if err != nil {
		return nil, err
	}
	var rng byterange.Range
	if c.Location == IndexStart {
		rng = byterange.FromStart(0, headerSize)
	} else {
		rng = byterange.Suffix(headerSize)
	}
	parts, err := src.DecodePartial(ctx, []byterange.Range{rng})
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(ID)
	}
	ab, err := c.IndexCodecs.Decode(ctx, parts[0], c.indexRep(outerShape))
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(ID)
	}
	return decodeIndex(ab), nil
}

// Decode reconstructs the full outer chunk, filling every absent (or
// all-fill) inner chunk with the fill value.
func (c *Codec) Decode(ctx context.Context, encoded []byte, outerRep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	if err := c.validate(outerRep.Shape); err != nil {
		return chunktype.ArrayBytes{}, err
	}
	src := &wholeBuffer{data: encoded}
	entries, err := c.readIndex(ctx, src, outerRep.Shape)
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}

	elemSize := outerRep.DataType.ElementSize()
	out := make([]byte, outerRep.NumElements()*uint64(elemSize.Bytes()))
	fillOuterChunk(out, outerRep.FillValue)

	grid := c.innerGridShape(outerRep.Shape)
	innerRep := c.innerChunkRep(outerRep)
	n := c.numInnerChunks(outerRep.Shape)
	for linear := uint64(0); linear < n; linear++ {
		span, present := entrySpan(entries, int(linear))
		if !present {
			continue
		}
		if span[0] < 0 || span[1] > int64(len(encoded)) || span[0] > span[1] {
			return chunktype.ArrayBytes{}, zerr.Codec(zerr.ErrCorrupt).WithCodec(ID)
		}
		ab, err := c.InnerCodecs.Decode(ctx, encoded[span[0]:span[1]], innerRep)
		if err != nil {
			return chunktype.ArrayBytes{}, zerr.Codec(err).WithCodec(ID)
		}
		gridIdx := subset.UnravelIndex(linear, grid)
		start := make([]uint64, len(gridIdx))
		for d := range gridIdx {
			start[d] = gridIdx[d] * c.InnerChunkShape[d]
		}
		region := subset.Subset{Start: start, Shape: c.InnerChunkShape}
		subset.InsertRegion(out, elemSize.Bytes(), outerRep.Shape, region, ab.Fixed())
	}
	return chunktype.NewFixedArrayBytes(out), nil
}

func fillOuterChunk(out []byte, fv chunktype.FillValue) {
	if fv.IsVariable() {
		return
	}
	pattern := fv.Bytes()
	if len(pattern) == 0 {
		return
	}
	for i := 0; i < len(out); i += len(pattern) {
		end := i + len(pattern)
		if end > len(out) {
			end = len(out)
		}
		copy(out[i:end], pattern[:end-i])
	}
}

// wholeBuffer adapts an in-memory []byte into a BytesPartialDecoder, used
// when Decode is handed the whole outer chunk's bytes already (e.g. by the
// array facade's full-chunk decode path) rather than a store-backed
// partial source.
type wholeBuffer struct {
	data []byte
}

func (w *wholeBuffer) Size(context.Context) (int64, error) { return int64(len(w.data)), nil }

func (w *wholeBuffer) DecodePartial(ctx context.Context, ranges []byterange.Range) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, end, err := r.Resolve(int64(len(w.data)))
		if err != nil {
			return nil, err
		}
		out[i] = append([]byte(nil), w.data[start:end]...)
	}
	return out, nil
}
