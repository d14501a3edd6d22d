package sharding

import (
	"context"
	"sort"

	"github.com/zarrs-go/zarrcore/byterange"
	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/subset"
	"github.com/zarrs-go/zarrcore/zerr"
)

// gapTolerance is the maximum number of unused bytes between two touched
// inner chunks' spans that still get coalesced into a single store read,
// trading a few wasted bytes for fewer round trips.
const gapTolerance = int64(4096)

// PartialDecoder builds an ArrayPartialDecoder over a shard: it reads the
// index once (one ranged read, memoised), then for each DecodePartial call
// works out which inner chunks the requested subsets touch, coalesces
// their spans within gapTolerance, issues one store read per coalesced
// span, and decodes only the touched inner chunks.
func (c *Codec) PartialDecoder(ctx context.Context, encoded partial.BytesPartialDecoder, outerRep chunktype.ChunkRep) (partial.ArrayPartialDecoder, error) {
	if err := c.validate(outerRep.Shape); err != nil {
		return nil, err
	}
	return &shardPartialDecoder{c: c, src: encoded, outerRep: outerRep}, nil
}

type shardPartialDecoder struct {
	c        *Codec
	src      partial.BytesPartialDecoder
	outerRep chunktype.ChunkRep

	haveIndex bool
	entries   []uint64
}

func (d *shardPartialDecoder) resolveIndex(ctx context.Context) ([]uint64, error) {
	if d.haveIndex {
		return d.entries, nil
	}
	entries, err := d.c.readIndex(ctx, d.src, d.outerRep.Shape)
	if err != nil {
		return nil, err
	}
	d.entries, d.haveIndex = entries, true
	return entries, nil
}

func (d *shardPartialDecoder) DecodePartial(ctx context.Context, subsets []subset.Subset) ([]chunktype.ArrayBytes, error) {
	entries, err := d.resolveIndex(ctx)
	if err != nil {
		return nil, err
	}

	grid := d.c.innerGridShape(d.outerRep.Shape)
	innerRep := d.c.innerChunkRep(d.outerRep)
	elemSize := d.outerRep.DataType.ElementSize().Bytes()

	// Determine the set of inner chunk linear indices every subset
	// touches.
	touchedSet := make(map[uint64]bool)
	for _, s := range subsets {
		for _, idx := range innerChunksTouching(s, d.c.InnerChunkShape, grid) {
			touchedSet[idx] = true
		}
	}
	touched := make([]uint64, 0, len(touchedSet))
	for idx := range touchedSet {
		touched = append(touched, idx)
	}
	sort.Slice(touched, func(i, j int) bool { return touched[i] < touched[j] })

	spans := make(map[uint64]byterange.Span)
	var present []uint64
	for _, idx := range touched {
		span, ok := entrySpan(entries, int(idx))
		if ok {
			spans[idx] = span
			present = append(present, idx)
		}
	}

	decodedInner, err := d.fetchAndDecode(ctx, present, spans, innerRep)
	if err != nil {
		return nil, err
	}

	out := make([]chunktype.ArrayBytes, len(subsets))
	for i, s := range subsets {
		buf := make([]byte, s.NumElements()*uint64(elemSize))
		fillOuterChunk(buf, d.outerRep.FillValue)
		for _, idx := range innerChunksTouching(s, d.c.InnerChunkShape, grid) {
			inner, ok := decodedInner[idx]
			if !ok {
				continue
			}
			gridIdx := subset.UnravelIndex(idx, grid)
			innerStart := make([]uint64, len(gridIdx))
			for dmn := range gridIdx {
				innerStart[dmn] = gridIdx[dmn] * d.c.InnerChunkShape[dmn]
			}
			innerRegion := subset.Subset{Start: innerStart, Shape: d.c.InnerChunkShape}
			overlap, ok := innerRegion.Intersect(s)
			if !ok {
				continue
			}
			localInner := overlap.Translate(innerStart)
			region := subset.ExtractRegion(inner.Fixed(), elemSize, d.c.InnerChunkShape, localInner)
			localOut := overlap.Translate(s.Start)
			subset.InsertRegion(buf, elemSize, s.Shape, localOut, region)
		}
		out[i] = chunktype.NewFixedArrayBytes(buf)
	}
	return out, nil
}

// fetchAndDecode coalesces present inner chunks' spans within gapTolerance
// into batched store reads, then decodes each inner chunk's slice of the
// fetched bytes.
func (d *shardPartialDecoder) fetchAndDecode(ctx context.Context, present []uint64, spans map[uint64]byterange.Span, innerRep chunktype.ChunkRep) (map[uint64]chunktype.ArrayBytes, error) {
	result := make(map[uint64]chunktype.ArrayBytes, len(present))
	if len(present) == 0 {
		return result, nil
	}

	sort.Slice(present, func(i, j int) bool { return spans[present[i]][0] < spans[present[j]][0] })

	type group struct {
		span byterange.Span
		idxs []uint64
	}
	var groups []group
	for _, idx := range present {
		sp := spans[idx]
		if len(groups) > 0 && groups[len(groups)-1].span.AdjacentWithinGap(sp, gapTolerance) {
			last := &groups[len(groups)-1]
			last.span = last.span.Union(sp)
			last.idxs = append(last.idxs, idx)
			continue
		}
		groups = append(groups, group{span: sp, idxs: []uint64{idx}})
	}

	ranges := make([]byterange.Range, len(groups))
	for i, g := range groups {
		ranges[i] = byterange.FromStart(g.span[0], g.span.Size())
	}
	fetched, err := d.src.DecodePartial(ctx, ranges)
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(ID)
	}

	for gi, g := range groups {
		buf := fetched[gi]
		for _, idx := range g.idxs {
			sp := spans[idx]
			local := sp[0] - g.span[0]
			inner := buf[local : local+sp.Size()]
			ab, err := d.c.InnerCodecs.Decode(ctx, inner, innerRep)
			if err != nil {
				return nil, zerr.Codec(err).WithCodec(ID)
			}
			result[idx] = ab
		}
	}
	return result, nil
}

// innerChunksTouching returns the linear (row-major over grid) indices of
// every inner chunk that region overlaps.
func innerChunksTouching(region subset.Subset, innerShape, grid []uint64) []uint64 {
	lo := make([]uint64, len(innerShape))
	hi := make([]uint64, len(innerShape))
	end := region.End()
	for d := range innerShape {
		lo[d] = region.Start[d] / innerShape[d]
		hi[d] = (end[d] - 1) / innerShape[d]
	}
	var out []uint64
	var rec func(d int, idx []uint64)
	idx := make([]uint64, len(innerShape))
	rec = func(d int, cur []uint64) {
		if d == len(innerShape) {
			linear := subset.RavelIndices(cur, grid)
			out = append(out, linear)
			return
		}
		for v := lo[d]; v <= hi[d]; v++ {
			cur[d] = v
			rec(d+1, cur)
		}
	}
	if len(innerShape) == 0 {
		return []uint64{0}
	}
	rec(0, idx)
	return out
}
