package zerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindStringCoversAllKinds(t *testing.T) {
	cases := map[Kind]string{
		KindMetadata:  "metadata",
		KindStore:     "store",
		KindCodec:     "codec",
		KindShape:     "shape",
		KindInvariant: "invariant",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
	if got := Kind(255).String(); got != "unknown" {
		t.Fatalf("Kind(255).String() = %q, want %q", got, "unknown")
	}
}

func TestErrorMessageIncludesCodecAndKey(t *testing.T) {
	base := errors.New("boom")

	plain := New(KindCodec, base)
	if plain.Error() != "zarrcore: codec error: boom" {
		t.Fatalf("got %q", plain.Error())
	}

	withCodec := New(KindCodec, base).WithCodec("gzip")
	if withCodec.Error() != "zarrcore: codec error (codec=gzip): boom" {
		t.Fatalf("got %q", withCodec.Error())
	}

	withKey := New(KindStore, base).WithKey("c/0/0")
	if withKey.Error() != "zarrcore: store error (key=c/0/0): boom" {
		t.Fatalf("got %q", withKey.Error())
	}

	withBoth := New(KindCodec, base).WithCodec("gzip").WithKey("c/0/0")
	if withBoth.Error() != "zarrcore: codec error (codec=gzip, key=c/0/0): boom" {
		t.Fatalf("got %q", withBoth.Error())
	}
}

func TestErrorUnwrapAndCauseExposeTheWrappedError(t *testing.T) {
	sentinel := errors.New("sentinel")
	e := New(KindCodec, sentinel)

	if !errors.Is(e, sentinel) {
		t.Fatalf("expected errors.Is to see through Unwrap to the sentinel")
	}
	if e.Cause() != sentinel {
		t.Fatalf("Cause() = %v, want %v", e.Cause(), sentinel)
	}
}

func TestErrorsAsRecoversTheConcreteType(t *testing.T) {
	wrapped := fmt.Errorf("wrap: %w", Codec(ErrChecksumMismatch).WithCodec("crc32c"))

	var ze *Error
	if !errors.As(wrapped, &ze) {
		t.Fatalf("expected errors.As to recover *Error through an fmt.Errorf wrapper")
	}
	if ze.Kind != KindCodec || ze.Codec != "crc32c" {
		t.Fatalf("got Kind=%v Codec=%q, want KindCodec/\"crc32c\"", ze.Kind, ze.Codec)
	}
	if !errors.Is(wrapped, ErrChecksumMismatch) {
		t.Fatalf("expected errors.Is(wrapped, ErrChecksumMismatch) to hold")
	}
}

func TestConstructorsProduceTheDocumentedKind(t *testing.T) {
	if Metadata("bad: %d", 1).Kind != KindMetadata {
		t.Fatalf("Metadata() should be KindMetadata")
	}
	if Shape("bad: %d", 1).Kind != KindShape {
		t.Fatalf("Shape() should be KindShape")
	}
	if Invariant("bad: %d", 1).Kind != KindInvariant {
		t.Fatalf("Invariant() should be KindInvariant")
	}
	if Store(errors.New("x")).Kind != KindStore {
		t.Fatalf("Store() should be KindStore")
	}
	if Codec(errors.New("x")).Kind != KindCodec {
		t.Fatalf("Codec() should be KindCodec")
	}
}

func TestDecodedSizeMismatchMessage(t *testing.T) {
	err := DecodedSizeMismatch(8, 6)
	want := "decoded size mismatch: expected 8 bytes, got 6"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrUnsupportedDataType, ErrInvalidParameter, ErrChecksumMismatch,
		ErrTruncated, ErrCorrupt, ErrNotFound, ErrOutOfRange, ErrPermissionDenied,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Fatalf("sentinel %d (%v) should not match sentinel %d (%v)", i, a, j, b)
			}
		}
	}
}
