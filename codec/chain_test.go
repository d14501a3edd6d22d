package codec_test

import (
	"context"
	"testing"

	"github.com/zarrs-go/zarrcore/byterange"
	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/codec/arraytoarray"
	"github.com/zarrs-go/zarrcore/codec/bytescodec"
	"github.com/zarrs-go/zarrcore/codec/checksum"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/subset"
)

// funcDecoder adapts a plain function into a partial.Decoder for tests.
type funcDecoder func(ctx context.Context) ([]byte, error)

func (f funcDecoder) Decode(ctx context.Context) ([]byte, error) { return f(ctx) }

func chunkRep2x2() chunktype.ChunkRep {
	return chunktype.ChunkRep{
		Shape:     []uint64{2, 2},
		DataType:  chunktype.New(chunktype.KindUint8),
		FillValue: chunktype.NewFixed([]byte{0}),
	}
}

func TestChainEncodeDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	chain := codec.Chain{
		ArrayToArray: []codec.ArrayToArrayCodec{arraytoarray.NewTranspose([]int{1, 0})},
		ArrayToBytes: bytescodec.New(chunktype.LittleEndian),
		BytesToBytes: []codec.BytesToBytesCodec{checksum.NewCRC32C()},
	}
	rep := chunkRep2x2()
	in := chunktype.NewFixedArrayBytes([]byte{1, 2, 3, 4})

	encoded, err := chain.Encode(ctx, in, rep)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Transposed bytes (4) plus the CRC32C trailer (4).
	if len(encoded) != 8 {
		t.Fatalf("got %d encoded bytes, want 8", len(encoded))
	}

	decoded, err := chain.Decode(ctx, encoded, rep)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(decoded.Fixed()) != string(in.Fixed()) {
		t.Fatalf("round trip mismatch: got %v, want %v", decoded.Fixed(), in.Fixed())
	}
}

func TestChainEncodedSizeKnownWithoutCompressor(t *testing.T) {
	chain := codec.Chain{
		ArrayToBytes: bytescodec.New(chunktype.LittleEndian),
		BytesToBytes: []codec.BytesToBytesCodec{checksum.NewCRC32C()},
	}
	rep := chunkRep2x2()
	size, ok := chain.EncodedSize(rep)
	if !ok {
		t.Fatalf("expected a known encoded size")
	}
	if size != 4+4 {
		t.Fatalf("got size %d, want 8", size)
	}
}

func TestChainPartialDecoderComposesStages(t *testing.T) {
	ctx := context.Background()
	chain := codec.Chain{
		ArrayToBytes: bytescodec.New(chunktype.LittleEndian),
		BytesToBytes: []codec.BytesToBytesCodec{checksum.NewCRC32C()},
	}
	rep := chunkRep2x2()
	in := chunktype.NewFixedArrayBytes([]byte{10, 20, 30, 40})

	encoded, err := chain.Encode(ctx, in, rep)
	if err != nil {
		t.Fatal(err)
	}
	bytesSource := partial.NewDefaultBytesPartialDecoder(funcDecoder(func(ctx context.Context) ([]byte, error) {
		return encoded, nil
	}))

	decoder, err := chain.PartialDecoder(ctx, bytesSource, rep)
	if err != nil {
		t.Fatalf("PartialDecoder: %v", err)
	}
	out, err := decoder.DecodePartial(ctx, []subset.Subset{subset.FromShape(rep.Shape)})
	if err != nil {
		t.Fatalf("DecodePartial: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d results, want 1", len(out))
	}
	if string(out[0].Fixed()) != string(in.Fixed()) {
		t.Fatalf("got %v, want %v", out[0].Fixed(), in.Fixed())
	}
}

func TestChainDecodePropagatesCorruption(t *testing.T) {
	ctx := context.Background()
	chain := codec.Chain{
		ArrayToBytes: bytescodec.New(chunktype.LittleEndian),
		BytesToBytes: []codec.BytesToBytesCodec{checksum.NewCRC32C()},
	}
	rep := chunkRep2x2()
	in := chunktype.NewFixedArrayBytes([]byte{1, 2, 3, 4})

	encoded, err := chain.Encode(ctx, in, rep)
	if err != nil {
		t.Fatal(err)
	}
	encoded[0] ^= 0xFF

	_, err = chain.Decode(ctx, encoded, rep)
	if err == nil {
		t.Fatalf("expected checksum corruption to be detected")
	}
}
