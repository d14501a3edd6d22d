package arraytoarray

import "encoding/binary"

// byteOrderLE is the in-memory byte order bitround and fixedscaleoffset
// read/write their fixed-width float and integer representations with.
// Array bytes are always native-endian in memory (chunktype's documented
// invariant); this package assumes a little-endian host, which every
// platform zarrcore targets in practice satisfies.
var byteOrderLE = binary.LittleEndian
