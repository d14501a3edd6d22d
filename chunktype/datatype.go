// Package chunktype defines the Zarr data model's scalar types, element
// sizing, fill values, and in-memory array-bytes representation. It is
// the one package every codec and the array facade import.
package chunktype

import "fmt"

// Kind tags the variant of DataType: signed/unsigned integers,
// half/single/double/brain-float, complex64/complex128, boolean, raw-bits
// of N bytes, variable-length UTF-8 string, and variable-length byte
// string.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat16
	KindFloat32
	KindFloat64
	KindBFloat16
	KindComplex64
	KindComplex128
	KindRawBits
	KindString
	KindBytes
)

// Size describes a codec's or data type's encoded size: either a fixed
// number of bytes per element, or Unbounded (variable-length).
type Size struct {
	fixed     int
	unbounded bool
}

// Fixed returns a Size describing a fixed n-byte encoding.
func Fixed(n int) Size { return Size{fixed: n} }

// Unbounded is the Size of a variable-length encoding.
func Unbounded() Size { return Size{unbounded: true} }

func (s Size) IsUnbounded() bool { return s.unbounded }

// Bytes returns the fixed byte count. It panics if s is Unbounded; callers
// must check IsUnbounded first.
func (s Size) Bytes() int {
	if s.unbounded {
		panic("chunktype: Size.Bytes called on an unbounded size")
	}
	return s.fixed
}

func (s Size) String() string {
	if s.unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", s.fixed)
}

// DataType is an immutable descriptor of one scalar element type.
type DataType struct {
	kind Kind
	// rawBitsLen is the element byte count for KindRawBits only (always a
	// whole number of bytes, i.e. a multiple of 8 bits).
	rawBitsLen int
}

func (d DataType) Kind() Kind { return d.kind }

// New constructs a DataType for any Kind other than KindRawBits; use
// NewRawBits for that one.
func New(kind Kind) DataType {
	if kind == KindRawBits {
		panic("chunktype: use NewRawBits for KindRawBits")
	}
	return DataType{kind: kind}
}

// NewRawBits constructs a raw-bits DataType of nBytes bytes. nBytes must
// be positive; sizing in whole bytes automatically keeps the element size
// a multiple of 8 bits.
func NewRawBits(nBytes int) DataType {
	if nBytes <= 0 {
		panic("chunktype: raw-bits element size must be positive")
	}
	return DataType{kind: KindRawBits, rawBitsLen: nBytes}
}

// ElementSize returns Fixed(n) for every type except the two variable-length
// string/bytes kinds, which return Unbounded.
func (d DataType) ElementSize() Size {
	switch d.kind {
	case KindBool, KindInt8, KindUint8:
		return Fixed(1)
	case KindInt16, KindUint16, KindFloat16, KindBFloat16:
		return Fixed(2)
	case KindInt32, KindUint32, KindFloat32:
		return Fixed(4)
	case KindInt64, KindUint64, KindFloat64, KindComplex64:
		return Fixed(8)
	case KindComplex128:
		return Fixed(16)
	case KindRawBits:
		return Fixed(d.rawBitsLen)
	case KindString, KindBytes:
		return Unbounded()
	default:
		panic("chunktype: unknown Kind")
	}
}

// IsEndianSensitive reports whether the "bytes" codec must convert this
// type's on-disk representation between native and configured endianness:
// mandatory when the element size is more than 1 byte, forbidden when it
// is exactly 1 byte.
func (d DataType) IsEndianSensitive() bool {
	size := d.ElementSize()
	if size.IsUnbounded() {
		return false
	}
	return size.Bytes() > 1
}

func (d DataType) String() string {
	switch d.kind {
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat16:
		return "float16"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBFloat16:
		return "bfloat16"
	case KindComplex64:
		return "complex64"
	case KindComplex128:
		return "complex128"
	case KindRawBits:
		return fmt.Sprintf("r%d", d.rawBitsLen*8)
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}
