// Package chunkkey maps chunk indices to store keys, with the separator
// between index components modelled as its own small enum rather than a
// bare string.
package chunkkey

import (
	"strconv"
	"strings"
)

// Separator is the character placed between a chunk index's digits and
// between "c" and the first index.
type Separator uint8

const (
	// Slash is the Zarr V3 default chunk key separator.
	Slash Separator = iota
	// Dot is the Zarr V2-style chunk key separator.
	Dot
)

func (s Separator) rune() byte {
	if s == Dot {
		return '.'
	}
	return '/'
}

// Encoding maps chunk indices to a store key under a fixed array prefix.
type Encoding struct {
	Prefix    string
	Separator Separator
}

// New returns an Encoding for the given array prefix and separator.
func New(prefix string, sep Separator) Encoding {
	return Encoding{Prefix: prefix, Separator: sep}
}

// Key returns the store key for the chunk at the given indices: "P/c" for a
// zero-dimensional array, "P/c<sep>i0<sep>i1<sep>..." otherwise.
func (e Encoding) Key(indices []uint64) string {
	var b strings.Builder
	if e.Prefix != "" {
		b.WriteString(e.Prefix)
		if !strings.HasSuffix(e.Prefix, "/") {
			b.WriteByte('/')
		}
	}
	b.WriteByte('c')
	sep := e.Separator.rune()
	for _, i := range indices {
		b.WriteByte(sep)
		b.WriteString(strconv.FormatUint(i, 10))
	}
	return b.String()
}
