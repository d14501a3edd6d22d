package arraytoarray

import (
	"context"

	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/zerr"
)

const BitroundID = "bitround"

// Bitround zeroes the low mantissa bits of each float element, keeping
// only KeepBits of mantissa precision (numcodecs "bitround" / xarray's
// bitshave). Shape- and position-preserving, so it gets a range-native
// partial decoder via codec.NewElementwisePartialDecoder instead of a
// decode-the-whole-chunk fallback.
type Bitround struct {
	KeepBits int
}

func NewBitround(keepBits int) *Bitround { return &Bitround{KeepBits: keepBits} }

func bitroundFromConfig(config map[string]interface{}) (interface{}, error) {
	raw, ok := config["keepbits"]
	if !ok {
		return nil, zerr.Metadata("bitround codec: missing keepbits")
	}
	return NewBitround(intFromConfig(raw)), nil
}

func init() {
	codec.Default.Register(BitroundID, bitroundFromConfig, nil, []string{"bitround"})
}

func (b *Bitround) ID() string { return BitroundID }

func (b *Bitround) EncodedRepresentation(decodedRep chunktype.ChunkRep) (chunktype.ChunkRep, error) {
	return decodedRep, nil
}

func (b *Bitround) Encode(ctx context.Context, decoded chunktype.ArrayBytes, decodedRep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	return b.round(decoded, decodedRep)
}

// Decode is the identity: bitround is lossy on encode (it destroys the low
// mantissa bits) but the rounded bit pattern decodes back to a valid float
// of the same type with no further transform needed.
func (b *Bitround) Decode(ctx context.Context, encoded chunktype.ArrayBytes, decodedRep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	return encoded, nil
}

func (b *Bitround) round(in chunktype.ArrayBytes, rep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
	if in.IsVariable() {
		return chunktype.ArrayBytes{}, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(BitroundID)
	}
	data := append([]byte(nil), in.Fixed()...)
	switch rep.DataType.Kind() {
	case chunktype.KindFloat32:
		roundMantissa32(data, b.KeepBits)
	case chunktype.KindFloat64:
		roundMantissa64(data, b.KeepBits)
	default:
		return chunktype.ArrayBytes{}, zerr.Codec(zerr.ErrUnsupportedDataType).WithCodec(BitroundID)
	}
	return chunktype.NewFixedArrayBytes(data), nil
}

// roundMantissa32 keeps keepBits of the 23-bit float32 mantissa, rounding
// the dropped bits to nearest-even onto the kept bits.
func roundMantissa32(data []byte, keepBits int) {
	if keepBits >= 23 {
		return
	}
	dropBits := uint32(23 - keepBits)
	half := uint32(1) << (dropBits - 1)
	mask := ^uint32(0) << dropBits
	for off := 0; off+4 <= len(data); off += 4 {
		bits := byteOrderLE.Uint32(data[off : off+4])
		rounded := (bits + half - 1 + ((bits >> dropBits) & 1)) & mask
		byteOrderLE.PutUint32(data[off:off+4], rounded)
	}
}

func roundMantissa64(data []byte, keepBits int) {
	if keepBits >= 52 {
		return
	}
	dropBits := uint64(52 - keepBits)
	half := uint64(1) << (dropBits - 1)
	mask := ^uint64(0) << dropBits
	for off := 0; off+8 <= len(data); off += 8 {
		bits := byteOrderLE.Uint64(data[off : off+8])
		rounded := (bits + half - 1 + ((bits >> dropBits) & 1)) & mask
		byteOrderLE.PutUint64(data[off:off+8], rounded)
	}
}

func (b *Bitround) PartialDecoder(inner partial.ArrayPartialDecoder, decodedRep chunktype.ChunkRep) partial.ArrayPartialDecoder {
	return codec.NewElementwisePartialDecoder(inner, func(ctx context.Context, encoded chunktype.ArrayBytes, rep chunktype.ChunkRep) (chunktype.ArrayBytes, error) {
		return b.Decode(ctx, encoded, rep)
	}, decodedRep.DataType)
}
