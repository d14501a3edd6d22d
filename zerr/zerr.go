// Package zerr defines the error taxonomy shared by every layer of
// zarrcore: a handful of error kinds, each implementing error and
// wrapping an underlying cause via github.com/pkg/errors so that identity
// (errors.Is/As) and human context (codec id, store key, the numbers
// involved) both survive propagation.
package zerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error into one of five buckets: metadata, store,
// codec, shape, and invariant-violation errors. Metadata, shape, and
// invariant errors are never retried; store and codec errors may carry
// enough context (key, codec id) for a caller to localise and possibly
// retry.
type Kind uint8

const (
	KindMetadata Kind = iota
	KindStore
	KindCodec
	KindShape
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindMetadata:
		return "metadata"
	case KindStore:
		return "store"
	case KindCodec:
		return "codec"
	case KindShape:
		return "shape"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is the concrete error type every zarrcore package returns. Callers
// that need to distinguish a specific sentinel should use errors.Is against
// the Err* sentinel values below; Error.Unwrap exposes the wrapped cause so that
// works transparently.
type Error struct {
	Kind Kind
	// Codec, if non-empty, identifies which codec produced the error.
	Codec string
	// Key, if non-empty, is the store key the error concerns.
	Key string
	cause error
}

func (e *Error) Error() string {
	switch {
	case e.Codec != "" && e.Key != "":
		return fmt.Sprintf("zarrcore: %s error (codec=%s, key=%s): %v", e.Kind, e.Codec, e.Key, e.cause)
	case e.Codec != "":
		return fmt.Sprintf("zarrcore: %s error (codec=%s): %v", e.Kind, e.Codec, e.cause)
	case e.Key != "":
		return fmt.Sprintf("zarrcore: %s error (key=%s): %v", e.Kind, e.Key, e.cause)
	default:
		return fmt.Sprintf("zarrcore: %s error: %v", e.Kind, e.cause)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Cause implements github.com/pkg/errors's Causer, so errors.Cause(err)
// keeps working for code written against that package's idiom.
func (e *Error) Cause() error { return e.cause }

// New wraps cause as a zarrcore Error of the given kind.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// WithCodec annotates e with the codec identifier that produced it.
func (e *Error) WithCodec(codecID string) *Error {
	e.Codec = codecID
	return e
}

// WithKey annotates e with the store key it concerns.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// Metadata, Store, Codec, Shape, and Invariant are convenience constructors
// for the five error kinds above.
func Metadata(format string, args ...interface{}) *Error {
	return New(KindMetadata, errors.Errorf(format, args...))
}

func Store(cause error) *Error {
	return New(KindStore, cause)
}

func Codec(cause error) *Error {
	return New(KindCodec, cause)
}

func Shape(format string, args ...interface{}) *Error {
	return New(KindShape, errors.Errorf(format, args...))
}

func Invariant(format string, args ...interface{}) *Error {
	return New(KindInvariant, errors.Errorf(format, args...))
}

// Sentinel codec errors. Use errors.Is(err, zerr.ErrChecksumMismatch) etc.
// Only ErrCorrupt and ErrChecksumMismatch are expected to survive a
// store's own retries; the others indicate a misconfigured metadata
// document.
var (
	ErrUnsupportedDataType = errors.New("unsupported data type for this codec")
	ErrInvalidParameter    = errors.New("invalid codec parameter")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrTruncated           = errors.New("truncated payload")
	ErrCorrupt             = errors.New("corrupt payload")
)

// DecodedSizeMismatch builds the codec error for the mismatch between the
// expected and actual decoded/encoded byte count.
func DecodedSizeMismatch(expected, actual int) error {
	return errors.Errorf("decoded size mismatch: expected %d bytes, got %d", expected, actual)
}

// Sentinel store errors.
var (
	ErrNotFound         = errors.New("key not found")
	ErrOutOfRange       = errors.New("partial read out of range")
	ErrPermissionDenied = errors.New("permission denied")
)
