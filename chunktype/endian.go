package chunktype

import "unsafe"

// Endianness is the on-disk byte order the "bytes" codec converts to and
// from. It does not describe in-memory representation, which is always
// native-endian.
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

func (e Endianness) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// NativeEndian is the endianness of the host CPU. zarrcore targets
// little-endian and big-endian hosts identically at the API level; only the
// "bytes" codec's byte-swap fast path consults this to skip work when disk
// and native endianness already agree.
var NativeEndian = littleEndianHost()

func littleEndianHost() Endianness {
	var x uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&x))
	if b[0] == 1 {
		return LittleEndian
	}
	return BigEndian
}
