package array

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zarrs-go/zarrcore/byterange"
	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/store"
	"github.com/zarrs-go/zarrcore/subset"
	"github.com/zarrs-go/zarrcore/zerr"
)

// storeBytesPartialDecoder adapts a single store key's ranged reads to the
// partial.BytesPartialDecoder interface a codec chain's PartialDecoder
// needs. A key that turns out to be absent (raced away between the
// caller's presence check and this call) surfaces as an error, since every
// call site here already established presence first.
type storeBytesPartialDecoder struct {
	store store.Readable
	key   string
}

func (d storeBytesPartialDecoder) DecodePartial(ctx context.Context, ranges []byterange.Range) ([][]byte, error) {
	vals, err := d.store.GetPartial(ctx, d.key, ranges)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		if !v.Present {
			return nil, zerr.Invariant("array: key %q disappeared during partial read", d.key)
		}
		out[i] = v.Bytes
	}
	return out, nil
}

func (d storeBytesPartialDecoder) Size(ctx context.Context) (int64, error) {
	n, ok, err := d.store.Size(ctx, d.key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, zerr.Invariant("array: key %q disappeared before size query", d.key)
	}
	return n, nil
}

// ReadSubset reads region (in array-global coordinates) into a freshly
// allocated, contiguous C-order buffer of region.Shape, applying
// Concurrency.ConcurrentChunks parallelism across the chunks region
// touches. Variable-length data types are not supported by this
// fixed-width path.
func (a *Array) ReadSubset(ctx context.Context, region subset.Subset) ([]byte, error) {
	if err := region.ValidateWithin(a.Descriptor.Shape); err != nil {
		return nil, err
	}
	elemSize := a.Descriptor.elemSize()
	if elemSize == 0 {
		return nil, zerr.Codec(zerr.ErrUnsupportedDataType)
	}

	out := make([]byte, region.NumElements()*uint64(elemSize))
	chunkIdxs := a.chunksTouchingTuples(region)

	g, ctx := errgroup.WithContext(ctx)
	if n := a.Concurrency.ConcurrentChunks; n > 0 {
		g.SetLimit(n)
	}
	for _, idx := range chunkIdxs {
		idx := idx
		g.Go(func() error {
			return a.readOneChunkInto(ctx, idx, region, out, elemSize)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// readOneChunkInto decodes (fully or partially, whichever the overlap
// calls for) the chunk at chunkIdx and copies its overlap with region into
// out, which is shaped region.Shape.
func (a *Array) readOneChunkInto(ctx context.Context, chunkIdx []uint64, region subset.Subset, out []byte, elemSize int) error {
	domain := a.chunkDomain(chunkIdx)
	overlap, ok := domain.Intersect(region)
	if !ok {
		return nil
	}
	local := overlap.Translate(domain.Start)

	var decoded chunktype.ArrayBytes
	var err error
	wholeChunk := local.NumElements() == a.Descriptor.ChunkRep().NumElements()
	if wholeChunk {
		// The whole chunk is requested; a full decode is no more work than
		// a partial one and lets the result populate the cache.
		decoded, err = a.decodeFullChunk(ctx, chunkIdx)
	} else {
		decoded, err = a.decodeChunkSubset(ctx, chunkIdx, local)
	}
	if err != nil {
		return err
	}

	// A partial decode already returns just local, shaped local.Shape.
	slab := decoded.Fixed()
	if wholeChunk {
		slab = subset.ExtractRegion(decoded.Fixed(), elemSize, a.Descriptor.ChunkShape, local)
	}
	localOut := overlap.Translate(region.Start)
	subset.InsertRegion(out, elemSize, region.Shape, localOut, slab)
	return nil
}

// decodeChunkSubset decodes only localRegion (chunk-local coordinates) of
// the chunk at chunkIdx, via the codec chain's partial decoder stack, when
// the chunk's store key is present; an absent key is served straight from
// the fill-value pattern without a store round trip.
func (a *Array) decodeChunkSubset(ctx context.Context, chunkIdx []uint64, localRegion subset.Subset) (chunktype.ArrayBytes, error) {
	key := a.chunkKey(chunkIdx)
	size, present, err := a.Store.Size(ctx, key)
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}
	if !present || size == 0 {
		buf := make([]byte, localRegion.NumElements()*uint64(a.Descriptor.elemSize()))
		fillBuffer(buf, a.Descriptor.FillValue)
		return chunktype.NewFixedArrayBytes(buf), nil
	}

	src := storeBytesPartialDecoder{store: a.Store, key: key}
	decoder, err := a.Descriptor.Chain.PartialDecoder(ctx, src, a.Descriptor.ChunkRep())
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}
	results, err := decoder.DecodePartial(ctx, []subset.Subset{localRegion})
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}
	return results[0], nil
}

// WriteSubset writes data (a contiguous C-order buffer shaped region.Shape)
// into region (array-global coordinates), applying
// Concurrency.ConcurrentChunks parallelism across the touched chunks. A
// chunk that ends up entirely fill value after the write has its store key
// erased rather than written, matching the sharding writer's convention at
// the whole-array level too.
func (a *Array) WriteSubset(ctx context.Context, region subset.Subset, data []byte) error {
	if err := region.ValidateWithin(a.Descriptor.Shape); err != nil {
		return err
	}
	elemSize := a.Descriptor.elemSize()
	if elemSize == 0 {
		return zerr.Codec(zerr.ErrUnsupportedDataType)
	}
	if uint64(len(data)) != region.NumElements()*uint64(elemSize) {
		return zerr.Invariant("array: write data length %d does not match region %v at element size %d", len(data), region.Shape, elemSize)
	}

	chunkIdxs := a.chunksTouchingTuples(region)
	g, ctx := errgroup.WithContext(ctx)
	if n := a.Concurrency.ConcurrentChunks; n > 0 {
		g.SetLimit(n)
	}
	for _, idx := range chunkIdxs {
		idx := idx
		g.Go(func() error {
			return a.writeOneChunk(ctx, idx, region, data, elemSize)
		})
	}
	return g.Wait()
}

// writeOneChunk overlays the portion of data that overlaps the chunk at
// chunkIdx, taking that chunk's lock for the whole read-modify-write (every
// write acquires the lock, not only sharded ones, since a plain fixed-width
// chunk's "modify" here is the same decode-overlay-encode sequence).
func (a *Array) writeOneChunk(ctx context.Context, chunkIdx []uint64, region subset.Subset, data []byte, elemSize int) error {
	domain := a.chunkDomain(chunkIdx)
	overlap, ok := domain.Intersect(region)
	if !ok {
		return nil
	}

	key := a.chunkKey(chunkIdx)
	mu := a.Locks.Mutex(key)
	mu.Lock()
	defer mu.Unlock()

	chunkRep := a.Descriptor.ChunkRep()
	var full []byte
	if overlap.NumElements() == chunkRep.NumElements() {
		full = make([]byte, chunkRep.NumElements()*uint64(elemSize))
	} else {
		existing, err := a.decodeFullChunkUncached(ctx, chunkIdx)
		if err != nil {
			return err
		}
		full = existing.Fixed()
	}

	local := overlap.Translate(domain.Start)
	localSrc := overlap.Translate(region.Start)
	slab := subset.ExtractRegion(data, elemSize, region.Shape, localSrc)
	subset.InsertRegion(full, elemSize, a.Descriptor.ChunkShape, local, slab)

	if a.Cache != nil {
		a.Cache.Remove(key)
	}

	if isAllFillValue(full, elemSize, a.Descriptor.FillValue) {
		return a.asWritable().Erase(ctx, key)
	}
	encoded, err := a.Descriptor.Chain.Encode(ctx, chunktype.NewFixedArrayBytes(full), chunkRep)
	if err != nil {
		return err
	}
	return a.asWritable().Set(ctx, key, encoded)
}

func (a *Array) asWritable() store.Writable { return a.Store }

// decodeFullChunkUncached bypasses a.Cache: a write is about to invalidate
// whatever is cached for key anyway, and serving a write's read side from a
// cache that might be shared with concurrent readers would let a stale
// decode outlive the write that's about to replace it.
func (a *Array) decodeFullChunkUncached(ctx context.Context, chunkIdx []uint64) (chunktype.ArrayBytes, error) {
	key := a.chunkKey(chunkIdx)
	raw, ok, err := a.Store.Get(ctx, key)
	if err != nil {
		return chunktype.ArrayBytes{}, err
	}
	if !ok {
		return chunktype.NewFixedArrayBytes(a.fillChunkBuffer()), nil
	}
	return a.Descriptor.Chain.Decode(ctx, raw, a.Descriptor.ChunkRep())
}

func isAllFillValue(buf []byte, elemSize int, fv chunktype.FillValue) bool {
	if fv.IsVariable() {
		return false
	}
	pattern := fv.Bytes()
	if len(pattern) != elemSize {
		return false
	}
	for i := 0; i < len(buf); i += elemSize {
		if string(buf[i:i+elemSize]) != string(pattern) {
			return false
		}
	}
	return true
}
