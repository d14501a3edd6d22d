package sharding

import (
	"context"

	"go.uber.org/zap"

	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/store"
	"github.com/zarrs-go/zarrcore/subset"
	"github.com/zarrs-go/zarrcore/zerr"
)

// Updater performs the read-modify-write a shard update needs: decode the
// existing shard (or start from all-fill-value if absent), overlay the
// new subset values, and re-encode the whole shard. It does not track
// which inner chunks changed to avoid re-encoding untouched ones; every
// inner chunk is re-encoded on every update, trading the fast path for
// large shards with many untouched inner chunks for simplicity (see
// DESIGN.md).
//
// Callers must hold the per-key lock for key for the duration of Update;
// Update does not take it itself so a caller coordinating several writes
// under one lock acquisition can call it more than once.
type Updater struct {
	Codec *Codec
	Log   *zap.Logger
}

func NewUpdater(c *Codec) *Updater { return &Updater{Codec: c, Log: zap.NewNop()} }

// SetLogger installs a diagnostic logger for flush/erase decisions. A nil
// logger disables logging; nothing here is load-bearing for correctness.
func (u *Updater) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	u.Log = log
}

func (u *Updater) log() *zap.Logger {
	if u.Log == nil {
		return zap.NewNop()
	}
	return u.Log
}

// Update reads key from s (if present), overlays each (subset, value) pair
// (subsets in outer-chunk-local coordinates), and writes the result back,
// erasing key instead if the result is entirely fill value.
func (u *Updater) Update(ctx context.Context, s store.Writable, r store.Readable, key string, outerRep chunktype.ChunkRep, subsets []subset.Subset, values []chunktype.ArrayBytes) error {
	if len(subsets) != len(values) {
		return zerr.Invariant("sharding updater: %d subsets but %d values", len(subsets), len(values))
	}
	elemSize := outerRep.DataType.ElementSize()
	if elemSize.IsUnbounded() {
		return zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(ID)
	}

	var full []byte
	existing, ok, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		ab, err := u.Codec.Decode(ctx, existing, outerRep)
		if err != nil {
			return err
		}
		full = ab.Fixed()
	} else {
		full = make([]byte, outerRep.NumElements()*uint64(elemSize.Bytes()))
		fillOuterChunk(full, outerRep.FillValue)
	}

	for i, region := range subsets {
		subset.InsertRegion(full, elemSize.Bytes(), outerRep.Shape, region, values[i].Fixed())
	}

	if isAllFillValue(full, outerRep.FillValue) {
		u.log().Debug("sharding: shard all fill value, erasing", zap.String("key", key))
		return s.Erase(ctx, key)
	}

	encoded, err := u.Codec.Encode(ctx, chunktype.NewFixedArrayBytes(full), outerRep)
	if err != nil {
		return err
	}
	u.log().Debug("sharding: flushing shard", zap.String("key", key), zap.Int("bytes", len(encoded)))
	return s.Set(ctx, key, encoded)
}
