// Package checksum implements the two bytes-to-bytes checksum codecs:
// crc32c (Castagnoli) and fletcher32, each appending a 4-byte
// little-endian trailer on encode and verifying-then-stripping it on
// decode.
package checksum

import (
	"context"
	"encoding/binary"
	"hash/crc32"

	"github.com/zarrs-go/zarrcore/byterange"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/zerr"
)

const (
	CRC32CID    = "crc32c"
	Fletcher32ID = "fletcher32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C appends a CRC-32C (Castagnoli) trailer on encode and, unless
// Validate is false, verifies it on decode. Validate defaults to true; the
// metadata package sets it to false when a caller's ArrayMetadataOptions
// disables checksum validation for an already-trusted store.
type CRC32C struct {
	Validate bool
}

func NewCRC32C() *CRC32C { return &CRC32C{Validate: true} }

func crc32cFromConfig(config map[string]interface{}) (interface{}, error) {
	return &CRC32C{Validate: validateFromConfig(config)}, nil
}

// Fletcher32 appends/verifies a Fletcher-32 trailer, the checksum
// numcodecs' "fletcher32" codec (and the NetCDF-4/HDF5 filter of the same
// name) uses. Validate behaves as it does for CRC32C.
type Fletcher32 struct {
	Validate bool
}

func NewFletcher32() *Fletcher32 { return &Fletcher32{Validate: true} }

func fletcher32FromConfig(config map[string]interface{}) (interface{}, error) {
	return &Fletcher32{Validate: validateFromConfig(config)}, nil
}

// validateFromConfig reads the "validate" key the metadata package threads
// through from ArrayMetadataOptions.ValidateChecksums, defaulting to true
// when absent (a config built outside the metadata package, e.g. directly
// in a test, still gets verification by default).
func validateFromConfig(config map[string]interface{}) bool {
	if v, ok := config["validate"]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return true
}

func init() {
	codec.Default.Register(CRC32CID, crc32cFromConfig, nil, []string{"crc32c"})
	codec.Default.Register(Fletcher32ID, fletcher32FromConfig, nil, []string{"fletcher32"})
}

func (c *CRC32C) ID() string { return CRC32CID }

func (c *CRC32C) EncodedSize(decodedSize int64) (int64, bool) { return decodedSize + 4, true }

func (c *CRC32C) Encode(ctx context.Context, decoded []byte) ([]byte, error) {
	sum := crc32.Checksum(decoded, castagnoli)
	out := make([]byte, len(decoded)+4)
	copy(out, decoded)
	binary.LittleEndian.PutUint32(out[len(decoded):], sum)
	return out, nil
}

func (c *CRC32C) Decode(ctx context.Context, encoded []byte) ([]byte, error) {
	if len(encoded) < 4 {
		return nil, zerr.Codec(zerr.ErrTruncated).WithCodec(CRC32CID)
	}
	body := encoded[:len(encoded)-4]
	if c.Validate {
		want := binary.LittleEndian.Uint32(encoded[len(encoded)-4:])
		if crc32.Checksum(body, castagnoli) != want {
			return nil, zerr.Codec(zerr.ErrChecksumMismatch).WithCodec(CRC32CID)
		}
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

func (c *CRC32C) PartialDecoder(inner partial.BytesPartialDecoder) partial.BytesPartialDecoder {
	return &checksumPartialDecoder{id: CRC32CID, inner: inner, validate: c.Validate, verify: func(body []byte, trailer []byte) error {
		want := binary.LittleEndian.Uint32(trailer)
		if crc32.Checksum(body, castagnoli) != want {
			return zerr.Codec(zerr.ErrChecksumMismatch).WithCodec(CRC32CID)
		}
		return nil
	}}
}

func (f *Fletcher32) ID() string { return Fletcher32ID }

func (f *Fletcher32) EncodedSize(decodedSize int64) (int64, bool) { return decodedSize + 4, true }

func (f *Fletcher32) Encode(ctx context.Context, decoded []byte) ([]byte, error) {
	sum := fletcher32(decoded)
	out := make([]byte, len(decoded)+4)
	copy(out, decoded)
	binary.LittleEndian.PutUint32(out[len(decoded):], sum)
	return out, nil
}

func (f *Fletcher32) Decode(ctx context.Context, encoded []byte) ([]byte, error) {
	if len(encoded) < 4 {
		return nil, zerr.Codec(zerr.ErrTruncated).WithCodec(Fletcher32ID)
	}
	body := encoded[:len(encoded)-4]
	if f.Validate {
		want := binary.LittleEndian.Uint32(encoded[len(encoded)-4:])
		if fletcher32(body) != want {
			return nil, zerr.Codec(zerr.ErrChecksumMismatch).WithCodec(Fletcher32ID)
		}
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

func (f *Fletcher32) PartialDecoder(inner partial.BytesPartialDecoder) partial.BytesPartialDecoder {
	return &checksumPartialDecoder{id: Fletcher32ID, inner: inner, validate: f.Validate, verify: func(body []byte, trailer []byte) error {
		want := binary.LittleEndian.Uint32(trailer)
		if fletcher32(body) != want {
			return zerr.Codec(zerr.ErrChecksumMismatch).WithCodec(Fletcher32ID)
		}
		return nil
	}}
}

// fletcher32 computes the Fletcher-32 checksum over b, treating b as a
// stream of little-endian uint16 words (odd trailing byte zero-padded).
func fletcher32(b []byte) uint32 {
	var c0, c1 uint32
	i := 0
	for i+1 < len(b) {
		c0 = (c0 + uint32(b[i]) + uint32(b[i+1])<<8) % 65535
		c1 = (c1 + c0) % 65535
		i += 2
	}
	if i < len(b) {
		c0 = (c0 + uint32(b[i])) % 65535
		c1 = (c1 + c0) % 65535
	}
	return (c1 << 16) | c0
}

// checksumPartialDecoder verifies the whole trailer once (memoised by the
// inner DefaultBytesPartialDecoder-style source when wrapped over one) and
// then passes ranges on the body straight through, so a ranged read does
// not have to re-verify or decode the whole value on every call.
type checksumPartialDecoder struct {
	id       string
	inner    partial.BytesPartialDecoder
	validate bool
	verify   func(body, trailer []byte) error

	checked bool
	size    int64
}

func (p *checksumPartialDecoder) ensureVerified(ctx context.Context) error {
	if p.checked {
		return nil
	}
	size, err := p.inner.Size(ctx)
	if err != nil {
		return err
	}
	if size < 4 {
		return zerr.Codec(zerr.ErrTruncated).WithCodec(p.id)
	}
	if p.validate {
		parts, err := p.inner.DecodePartial(ctx, []byterange.Range{byterange.Full()})
		if err != nil {
			return err
		}
		whole := parts[0]
		if err := p.verify(whole[:len(whole)-4], whole[len(whole)-4:]); err != nil {
			return err
		}
	}
	p.checked = true
	p.size = size - 4
	return nil
}

func (p *checksumPartialDecoder) Size(ctx context.Context) (int64, error) {
	if err := p.ensureVerified(ctx); err != nil {
		return 0, err
	}
	return p.size, nil
}

func (p *checksumPartialDecoder) DecodePartial(ctx context.Context, ranges []byterange.Range) ([][]byte, error) {
	if err := p.ensureVerified(ctx); err != nil {
		return nil, err
	}
	return p.inner.DecodePartial(ctx, ranges)
}
