package chunktype

import "github.com/zarrs-go/zarrcore/zerr"

// ArrayBytes is the in-memory representation of a chunk's (or a chunk
// subset's) decoded data. Exactly one of the two constructors below
// produces a valid value; the zero value is invalid.
type ArrayBytes struct {
	fixed []byte

	varData    []byte
	varOffsets []int64
	isVariable bool
}

// NewFixedArrayBytes wraps a contiguous, C-order byte buffer as fixed-length array
// bytes. The caller guarantees len(data) == product(shape) * elementSize;
// codecs that receive a mismatched buffer return zerr.DecodedSizeMismatch.
func NewFixedArrayBytes(data []byte) ArrayBytes {
	return ArrayBytes{fixed: data}
}

// NewVariableArrayBytes wraps a (data, offsets) pair as variable-length
// array bytes. offsets must be strictly non-decreasing, start at 0, and
// end at len(data); NewVariableArrayBytes validates this and returns an
// *zerr.Error of KindInvariant on violation.
func NewVariableArrayBytes(data []byte, offsets []int64) (ArrayBytes, error) {
	if len(offsets) == 0 {
		return ArrayBytes{}, zerr.Invariant("variable-length array bytes: offsets must have at least one element")
	}
	if offsets[0] != 0 {
		return ArrayBytes{}, zerr.Invariant("variable-length array bytes: offsets[0] must be 0, got %d", offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return ArrayBytes{}, zerr.Invariant("variable-length array bytes: offsets not monotonic at index %d (%d < %d)", i, offsets[i], offsets[i-1])
		}
	}
	if int(offsets[len(offsets)-1]) != len(data) {
		return ArrayBytes{}, zerr.Invariant("variable-length array bytes: offsets[last]=%d does not match len(data)=%d", offsets[len(offsets)-1], len(data))
	}
	return ArrayBytes{varData: data, varOffsets: offsets, isVariable: true}, nil
}

func (a ArrayBytes) IsVariable() bool { return a.isVariable }

// Fixed returns the contiguous fixed-width byte buffer. Panics if IsVariable.
func (a ArrayBytes) Fixed() []byte {
	if a.isVariable {
		panic("chunktype: ArrayBytes.Fixed called on variable-length bytes")
	}
	return a.fixed
}

// VariableData and VariableOffsets expose the (data, offsets) pair. Panics
// if !IsVariable.
func (a ArrayBytes) VariableData() []byte {
	if !a.isVariable {
		panic("chunktype: ArrayBytes.VariableData called on fixed-width bytes")
	}
	return a.varData
}

func (a ArrayBytes) VariableOffsets() []int64 {
	if !a.isVariable {
		panic("chunktype: ArrayBytes.VariableOffsets called on fixed-width bytes")
	}
	return a.varOffsets
}

// NumElements returns product(shape) for variable-length bytes (one less
// than len(offsets)); it panics for fixed-width bytes, where the element
// count depends on the data type's size and must be computed by the caller.
func (a ArrayBytes) NumElements() int {
	if !a.isVariable {
		panic("chunktype: ArrayBytes.NumElements called on fixed-width bytes")
	}
	return len(a.varOffsets) - 1
}

// Element returns the i'th element's raw bytes from variable-length array
// bytes.
func (a ArrayBytes) Element(i int) []byte {
	return a.varData[a.varOffsets[i]:a.varOffsets[i+1]]
}
