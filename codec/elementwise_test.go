package codec_test

import (
	"context"
	"testing"

	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/subset"
)

type fixedInnerDecoder struct {
	values map[string]chunktype.ArrayBytes
}

func (f fixedInnerDecoder) DecodePartial(ctx context.Context, subsets []subset.Subset) ([]chunktype.ArrayBytes, error) {
	out := make([]chunktype.ArrayBytes, len(subsets))
	for i, s := range subsets {
		out[i] = f.values[subsetKey(s)]
	}
	return out, nil
}

func subsetKey(s subset.Subset) string {
	k := ""
	for _, v := range s.Start {
		k += string(rune('0' + v))
	}
	return k
}

func TestElementwisePartialDecoderAppliesDecodeToEachSubset(t *testing.T) {
	ctx := context.Background()
	s0 := subset.New([]uint64{0}, []uint64{2})
	s1 := subset.New([]uint64{1}, []uint64{2})

	inner := fixedInnerDecoder{values: map[string]chunktype.ArrayBytes{
		subsetKey(s0): chunktype.NewFixedArrayBytes([]byte{1, 2}),
		subsetKey(s1): chunktype.NewFixedArrayBytes([]byte{3, 4}),
	}}

	doubled := func(ctx context.Context, encoded chunktype.ArrayBytes, rep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
		in := encoded.Fixed()
		out := make([]byte, len(in))
		for i, b := range in {
			out[i] = b * 2
		}
		return chunktype.NewFixedArrayBytes(out), nil
	}

	d := codec.NewElementwisePartialDecoder(inner, doubled, chunktype.New(chunktype.KindUint8))
	out, err := d.DecodePartial(ctx, []subset.Subset{s0, s1})
	if err != nil {
		t.Fatalf("DecodePartial: %v", err)
	}
	if string(out[0].Fixed()) != "\x02\x04" {
		t.Fatalf("got %v, want [2 4]", out[0].Fixed())
	}
	if string(out[1].Fixed()) != "\x06\x08" {
		t.Fatalf("got %v, want [6 8]", out[1].Fixed())
	}
}
