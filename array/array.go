// Package array is the facade that ties the store, codec chain, chunk
// cache, and chunk-key encoding together into whole-array read/write
// operations over arbitrary hyper-rectangle subsets: resolve which chunks
// a request touches, fetch/decode only those, and assemble the result.
package array

import (
	"context"

	"github.com/zarrs-go/zarrcore/cache"
	"github.com/zarrs-go/zarrcore/chunkkey"
	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/store"
	"github.com/zarrs-go/zarrcore/subset"
)

// Descriptor is an array's immutable metadata: shape, chunk shape, data
// type, fill value, codec chain, and chunk key encoding. A Descriptor is
// never mutated after construction; resizing or re-chunking an array means
// building a new Array around a new Descriptor.
type Descriptor struct {
	Shape            []uint64
	ChunkShape       []uint64
	DataType         chunktype.DataType
	FillValue        chunktype.FillValue
	Chain            codec.Chain
	ChunkKeyEncoding chunkkey.Encoding
}

// ChunkRep returns the representation every chunk of this array has.
func (d Descriptor) ChunkRep() chunktype.ChunkRep {
	return chunktype.ChunkRep{Shape: d.ChunkShape, DataType: d.DataType, FillValue: d.FillValue}
}

// ChunkGridShape returns, per dimension, how many chunks tile the array
// (the last chunk on an axis may be partially outside Shape; the array
// facade pads with fill value when decoding and trims when assembling
// results).
func (d Descriptor) ChunkGridShape() []uint64 {
	grid := make([]uint64, len(d.Shape))
	for i := range d.Shape {
		grid[i] = (d.Shape[i] + d.ChunkShape[i] - 1) / d.ChunkShape[i]
	}
	return grid
}

func (d Descriptor) elemSize() int {
	size := d.DataType.ElementSize()
	if size.IsUnbounded() {
		return 0
	}
	return size.Bytes()
}

// ConcurrencyOptions bounds parallelism at the array layer and is handed
// down to codecs that parallelise internally.
type ConcurrencyOptions struct {
	// ConcurrentChunks bounds chunks decoded/encoded in parallel.
	ConcurrentChunks int
	// ConcurrentCodecs is carried in the options but is not read by any
	// array path or codec in this module; the sharding codec decodes and
	// encodes inner chunks one at a time.
	ConcurrentCodecs int
	// ExperimentalPartialEncoding is carried in the options but is not read
	// by any write path; a partial write always decodes the chunk, overlays
	// the new elements and re-encodes the whole chunk.
	ExperimentalPartialEncoding bool
}

// DefaultConcurrencyOptions returns a conservative single-threaded
// configuration; callers size this to their workload and hardware.
func DefaultConcurrencyOptions() ConcurrencyOptions {
	return ConcurrencyOptions{ConcurrentChunks: 1, ConcurrentCodecs: 1}
}

// Array is a store-backed, cached, concurrent view over one Zarr array.
type Array struct {
	Descriptor  Descriptor
	Store       store.Store
	Locks       store.Locks
	Cache       *cache.Cache[chunktype.ArrayBytes]
	Concurrency ConcurrencyOptions
}

// New builds an Array. cache may be nil to disable chunk caching; locks
// may be nil to use store.DisabledLocks (only safe with a single writer).
func New(desc Descriptor, s store.Store, locks store.Locks, c *cache.Cache[chunktype.ArrayBytes]) *Array {
	if locks == nil {
		locks = store.DisabledLocks{}
	}
	return &Array{Descriptor: desc, Store: s, Locks: locks, Cache: c, Concurrency: DefaultConcurrencyOptions()}
}

func (a *Array) chunkKey(chunkIdx []uint64) string {
	return a.Descriptor.ChunkKeyEncoding.Key(chunkIdx)
}

func (a *Array) fillChunkBuffer() []byte {
	n := a.Descriptor.ChunkRep().NumElements()
	buf := make([]byte, n*uint64(a.Descriptor.elemSize()))
	fillBuffer(buf, a.Descriptor.FillValue)
	return buf
}

func fillBuffer(buf []byte, fv chunktype.FillValue) {
	if fv.IsVariable() {
		return
	}
	pattern := fv.Bytes()
	if len(pattern) == 0 {
		return
	}
	for i := 0; i < len(buf); i += len(pattern) {
		end := i + len(pattern)
		if end > len(buf) {
			end = len(buf)
		}
		copy(buf[i:end], pattern[:end-i])
	}
}

// chunksTouchingTuples returns the per-dimension indices of every chunk
// whose domain intersects region (an array-global subset).
func (a *Array) chunksTouchingTuples(region subset.Subset) [][]uint64 {
	chunkShape := a.Descriptor.ChunkShape
	n := len(chunkShape)
	if n == 0 {
		return [][]uint64{{}}
	}
	lo := make([]uint64, n)
	hi := make([]uint64, n)
	end := region.End()
	for d := 0; d < n; d++ {
		lo[d] = region.Start[d] / chunkShape[d]
		hi[d] = (end[d] - 1) / chunkShape[d]
	}
	var out [][]uint64
	cur := make([]uint64, n)
	var rec func(d int)
	rec = func(d int) {
		if d == n {
			cp := make([]uint64, n)
			copy(cp, cur)
			out = append(out, cp)
			return
		}
		for v := lo[d]; v <= hi[d]; v++ {
			cur[d] = v
			rec(d + 1)
		}
	}
	rec(0)
	return out
}

// chunkDomain returns the chunk's array-global subset, clipped to the
// array shape (the chunk grid's last row/column/... may extend the chunk
// shape past the array's actual extent).
func (a *Array) chunkDomain(chunkIdx []uint64) subset.Subset {
	start := make([]uint64, len(chunkIdx))
	shape := make([]uint64, len(chunkIdx))
	for d, idx := range chunkIdx {
		start[d] = idx * a.Descriptor.ChunkShape[d]
		end := start[d] + a.Descriptor.ChunkShape[d]
		if end > a.Descriptor.Shape[d] {
			end = a.Descriptor.Shape[d]
		}
		shape[d] = end - start[d]
	}
	return subset.Subset{Start: start, Shape: shape}
}

// decodeFullChunk fetches and decodes one whole chunk (padded to
// Descriptor.ChunkShape, not clipped to the array boundary), returning the
// fill-value buffer unchanged if the chunk's store key is absent. Results
// are served from/stored to a.Cache when present.
func (a *Array) decodeFullChunk(ctx context.Context, chunkIdx []uint64) (chunktype.ArrayBytes, error) {
	key := a.chunkKey(chunkIdx)
	load := func(ctx context.Context) (chunktype.ArrayBytes, error) {
		raw, ok, err := a.Store.Get(ctx, key)
		if err != nil {
			return chunktype.ArrayBytes{}, err
		}
		if !ok {
			return chunktype.NewFixedArrayBytes(a.fillChunkBuffer()), nil
		}
		return a.Descriptor.Chain.Decode(ctx, raw, a.Descriptor.ChunkRep())
	}
	if a.Cache == nil {
		return load(ctx)
	}
	return a.Cache.TryGetOrInsertWith(ctx, key, load)
}
