package arraytoarray

import (
	"context"
	"math"
	"testing"

	"github.com/zarrs-go/zarrcore/chunktype"
)

func TestTransposeRoundTrip(t *testing.T) {
	ctx := context.Background()
	// A 2x3 array of uint8 elements, transpose order [1,0] -> 3x2.
	rep := chunktype.ChunkRep{
		Shape:     []uint64{2, 3},
		DataType:  chunktype.New(chunktype.KindUint8),
		FillValue: chunktype.NewFixed([]byte{0}),
	}
	in := chunktype.NewFixedArrayBytes([]byte{1, 2, 3, 4, 5, 6})

	tr := NewTranspose([]int{1, 0})
	encodedRep, err := tr.EncodedRepresentation(rep)
	if err != nil {
		t.Fatal(err)
	}
	if encodedRep.Shape[0] != 3 || encodedRep.Shape[1] != 2 {
		t.Fatalf("got shape %v, want [3 2]", encodedRep.Shape)
	}

	encoded, err := tr.Encode(ctx, in, rep)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{1, 4, 2, 5, 3, 6}
	if string(encoded.Fixed()) != string(want) {
		t.Fatalf("got %v, want %v", encoded.Fixed(), want)
	}

	decoded, err := tr.Decode(ctx, encoded, rep)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(decoded.Fixed()) != string(in.Fixed()) {
		t.Fatalf("round trip mismatch: got %v, want %v", decoded.Fixed(), in.Fixed())
	}
}

func TestSqueezeDropsUnitDimensions(t *testing.T) {
	rep := chunktype.ChunkRep{
		Shape:    []uint64{1, 4, 1},
		DataType: chunktype.New(chunktype.KindUint8),
	}
	sq := NewSqueeze()
	encodedRep, err := sq.EncodedRepresentation(rep)
	if err != nil {
		t.Fatal(err)
	}
	if len(encodedRep.Shape) != 1 || encodedRep.Shape[0] != 4 {
		t.Fatalf("got shape %v, want [4]", encodedRep.Shape)
	}
}

func TestSqueezeEncodeDecodeIsIdentityOnBytes(t *testing.T) {
	ctx := context.Background()
	sq := NewSqueeze()
	in := chunktype.NewFixedArrayBytes([]byte{9, 8, 7})
	rep := chunktype.ChunkRep{Shape: []uint64{1, 3}, DataType: chunktype.New(chunktype.KindUint8)}

	encoded, err := sq.Encode(ctx, in, rep)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := sq.Decode(ctx, encoded, rep)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded.Fixed()) != string(in.Fixed()) {
		t.Fatalf("got %v, want %v", decoded.Fixed(), in.Fixed())
	}
}

func TestBitroundReducesMantissaPrecisionWithinTolerance(t *testing.T) {
	ctx := context.Background()
	b := NewBitround(10) // keep 10 of float32's 23 mantissa bits

	rep := chunktype.ChunkRep{
		Shape:    []uint64{1},
		DataType: chunktype.New(chunktype.KindFloat32),
	}
	orig := float32(3.14159265)
	buf := make([]byte, 4)
	byteOrderLE.PutUint32(buf, math.Float32bits(orig))
	in := chunktype.NewFixedArrayBytes(buf)

	encoded, err := b.Encode(ctx, in, rep)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := b.Decode(ctx, encoded, rep)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := math.Float32frombits(byteOrderLE.Uint32(decoded.Fixed()))

	// Bitround is lossy: the declared tolerance is losing the bits beyond
	// KeepBits of mantissa precision, which for 10 kept bits of a ~3.14
	// value is well under 1% relative error.
	rel := math.Abs(float64(got-orig)) / math.Abs(float64(orig))
	if rel > 0.01 {
		t.Fatalf("bitround error %v exceeds tolerance: got %v, want near %v", rel, got, orig)
	}
}

func TestFixedScaleOffsetRoundTripWithinTolerance(t *testing.T) {
	ctx := context.Background()
	f := NewFixedScaleOffset(0, 100, chunktype.KindInt16)
	rep := chunktype.ChunkRep{
		Shape:    []uint64{3},
		DataType: chunktype.New(chunktype.KindFloat64),
	}
	values := []float64{1.23, -4.56, 0.0}
	buf := make([]byte, 24)
	for i, v := range values {
		byteOrderLE.PutUint64(buf[i*8:i*8+8], math.Float64bits(v))
	}
	in := chunktype.NewFixedArrayBytes(buf)

	encoded, err := f.Encode(ctx, in, rep)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := f.Decode(ctx, encoded, rep)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i, want := range values {
		off := i * 8
		got := math.Float64frombits(byteOrderLE.Uint64(decoded.Fixed()[off : off+8]))
		if math.Abs(got-want) > 0.01 { // scale=100 -> quantization step 0.01
			t.Fatalf("element %d: got %v, want ~%v", i, got, want)
		}
	}
}
