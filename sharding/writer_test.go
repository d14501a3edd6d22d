package sharding

import (
	"context"
	"testing"

	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/store"
	"github.com/zarrs-go/zarrcore/subset"
)

func TestUpdaterWritesAndReadsBackASubset(t *testing.T) {
	ctx := context.Background()
	c := testCodec()
	u := NewUpdater(c)
	s := store.NewMemStore()
	rep := outerRep4x4()
	key := "0/0"

	region := subset.New([]uint64{0, 0}, []uint64{2, 2})
	value := chunktype.NewFixedArrayBytes([]byte{1, 2, 3, 4})

	if err := u.Update(ctx, s, s, key, rep, []subset.Subset{region}, []chunktype.ArrayBytes{value}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	encoded, ok, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("expected the shard key to exist after a non-fill write")
	}
	decoded, err := c.Decode(ctx, encoded, rep)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := subset.ExtractRegion(decoded.Fixed(), 1, rep.Shape, region)
	if string(got) != string(value.Fixed()) {
		t.Fatalf("got %v, want %v", got, value.Fixed())
	}
}

func TestUpdaterSecondWriteOverlaysFirst(t *testing.T) {
	ctx := context.Background()
	c := testCodec()
	u := NewUpdater(c)
	s := store.NewMemStore()
	rep := outerRep4x4()
	key := "0/0"

	region1 := subset.New([]uint64{0, 0}, []uint64{2, 2})
	v1 := chunktype.NewFixedArrayBytes([]byte{1, 2, 3, 4})
	if err := u.Update(ctx, s, s, key, rep, []subset.Subset{region1}, []chunktype.ArrayBytes{v1}); err != nil {
		t.Fatal(err)
	}

	region2 := subset.New([]uint64{2, 2}, []uint64{2, 2})
	v2 := chunktype.NewFixedArrayBytes([]byte{5, 6, 7, 8})
	if err := u.Update(ctx, s, s, key, rep, []subset.Subset{region2}, []chunktype.ArrayBytes{v2}); err != nil {
		t.Fatal(err)
	}

	encoded, _, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := c.Decode(ctx, encoded, rep)
	if err != nil {
		t.Fatal(err)
	}
	got1 := subset.ExtractRegion(decoded.Fixed(), 1, rep.Shape, region1)
	got2 := subset.ExtractRegion(decoded.Fixed(), 1, rep.Shape, region2)
	if string(got1) != string(v1.Fixed()) {
		t.Fatalf("region1 overwritten: got %v, want %v", got1, v1.Fixed())
	}
	if string(got2) != string(v2.Fixed()) {
		t.Fatalf("region2: got %v, want %v", got2, v2.Fixed())
	}
}

func TestUpdaterErasesWhenResultIsAllFillValue(t *testing.T) {
	ctx := context.Background()
	c := testCodec()
	u := NewUpdater(c)
	s := store.NewMemStore()
	rep := outerRep4x4()
	key := "0/0"

	region := subset.New([]uint64{0, 0}, []uint64{2, 2})
	value := chunktype.NewFixedArrayBytes([]byte{1, 2, 3, 4})
	if err := u.Update(ctx, s, s, key, rep, []subset.Subset{region}, []chunktype.ArrayBytes{value}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, key); !ok {
		t.Fatalf("precondition: key should exist after a non-fill write")
	}

	fillValue := chunktype.NewFixedArrayBytes([]byte{0, 0, 0, 0})
	if err := u.Update(ctx, s, s, key, rep, []subset.Subset{region}, []chunktype.ArrayBytes{fillValue}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, key); ok {
		t.Fatalf("expected the shard key to be erased once every inner chunk is fill value")
	}
}
