package chunktype

import (
	"math"
	"testing"
)

func TestElementSize(t *testing.T) {
	cases := []struct {
		dt   DataType
		want int
	}{
		{New(KindBool), 1},
		{New(KindInt8), 1},
		{New(KindUint16), 2},
		{New(KindFloat32), 4},
		{New(KindUint64), 8},
		{New(KindComplex64), 8},
		{New(KindComplex128), 16},
		{NewRawBits(24), 24},
	}
	for _, c := range cases {
		got := c.dt.ElementSize()
		if got.IsUnbounded() || got.Bytes() != c.want {
			t.Errorf("%s: got %v, want %d", c.dt, got, c.want)
		}
	}

	if !New(KindString).ElementSize().IsUnbounded() {
		t.Errorf("string type should be unbounded")
	}
	if !New(KindBytes).ElementSize().IsUnbounded() {
		t.Errorf("bytes type should be unbounded")
	}
}

func TestIsEndianSensitive(t *testing.T) {
	if New(KindUint8).IsEndianSensitive() {
		t.Errorf("1-byte type must not be endian sensitive")
	}
	if !New(KindUint16).IsEndianSensitive() {
		t.Errorf("2-byte type must be endian sensitive")
	}
	if New(KindString).IsEndianSensitive() {
		t.Errorf("variable-length type must not be endian sensitive")
	}
}

func TestFillValueEqual(t *testing.T) {
	a := NewFixed([]byte{1, 2, 3, 4})
	b := NewFixed([]byte{1, 2, 3, 4})
	c := NewFixed([]byte{1, 2, 3, 5})
	if !a.Equal(b) {
		t.Errorf("expected equal fill values")
	}
	if a.Equal(c) {
		t.Errorf("expected unequal fill values")
	}

	v1 := NewVariable([]byte("x"))
	v2 := NewVariable([]byte("x"))
	if !v1.Equal(v2) {
		t.Errorf("expected equal variable fill values")
	}
	if a.Equal(v1) {
		t.Errorf("fixed and variable fill values must never compare equal")
	}
}

func TestCanonicalNaNFillValues(t *testing.T) {
	nan64 := NaNFillValue64()
	if !IsCanonicalNaN64(nan64.Bytes()) {
		t.Fatalf("NaNFillValue64 did not round trip through IsCanonicalNaN64")
	}

	var bits uint64
	for i, bb := range nan64.Bytes() {
		bits |= uint64(bb) << (8 * i)
	}
	f := math.Float64frombits(bits)
	if !math.IsNaN(f) {
		t.Fatalf("expected NaN bit pattern to decode as NaN, got %v", f)
	}

	nan32 := NaNFillValue32()
	var bits32 uint32
	for i, bb := range nan32.Bytes() {
		bits32 |= uint32(bb) << (8 * i)
	}
	if !math.IsNaN(float64(math.Float32frombits(bits32))) {
		t.Fatalf("expected float32 NaN bit pattern to decode as NaN")
	}
}

func TestArrayBytesVariableInvariants(t *testing.T) {
	_, err := NewVariableArrayBytes([]byte("ab"), []int64{0, 1})
	if err == nil {
		t.Fatalf("expected error for offsets not ending at len(data)")
	}

	_, err = NewVariableArrayBytes([]byte("ab"), []int64{1, 2})
	if err == nil {
		t.Fatalf("expected error for offsets[0] != 0")
	}

	_, err = NewVariableArrayBytes([]byte("ab"), []int64{0, 2, 1})
	if err == nil {
		t.Fatalf("expected error for non-monotonic offsets")
	}

	ab, err := NewVariableArrayBytes([]byte("abcd"), []int64{0, 1, 1, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ab.NumElements() != 3 {
		t.Fatalf("got %d elements, want 3", ab.NumElements())
	}
	if string(ab.Element(0)) != "a" || string(ab.Element(1)) != "" || string(ab.Element(2)) != "bcd" {
		t.Fatalf("unexpected element contents")
	}
}
