package compressor

import (
	"context"

	kzstd "github.com/klauspost/compress/zstd"

	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/zerr"
)

const ZstdID = "zstd"

// Zstd is the zstd bytes-to-bytes codec, backed by klauspost/compress/zstd
// (a direct dependency of rpcpool-yellowstone-faithful, whose wire format
// leans on zstd frames the same way a zarr chunk does here).
type Zstd struct {
	Level kzstd.EncoderLevel
}

// NewZstd builds a Zstd codec for the given numeric compression level. Its
// zarr.json config uses a plain integer level, 1-22-ish, not klauspost's
// named EncoderLevel enum; zstdFromConfig maps that integer onto an
// EncoderLevel.
func NewZstd(level kzstd.EncoderLevel) *Zstd { return &Zstd{Level: level} }

func zstdFromConfig(config map[string]interface{}) (interface{}, error) {
	level := kzstd.SpeedDefault
	if raw, ok := config["level"]; ok {
		n := intFromConfig(raw)
		switch {
		case n <= 1:
			level = kzstd.SpeedFastest
		case n <= 6:
			level = kzstd.SpeedDefault
		case n <= 12:
			level = kzstd.SpeedBetterCompression
		default:
			level = kzstd.SpeedBestCompression
		}
	}
	return NewZstd(level), nil
}

func init() {
	codec.Default.Register(ZstdID, zstdFromConfig, nil, []string{"zstd"})
}

func (z *Zstd) ID() string { return ZstdID }

func (z *Zstd) EncodedSize(int64) (int64, bool) { return 0, false }

func (z *Zstd) Encode(ctx context.Context, decoded []byte) ([]byte, error) {
	enc, err := kzstd.NewWriter(nil, kzstd.WithEncoderLevel(z.Level))
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(ZstdID)
	}
	defer enc.Close()
	return enc.EncodeAll(decoded, nil), nil
}

func (z *Zstd) Decode(ctx context.Context, encoded []byte) ([]byte, error) {
	dec, err := kzstd.NewReader(nil)
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(ZstdID)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(encoded, nil)
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(ZstdID)
	}
	return out, nil
}

func (z *Zstd) PartialDecoder(inner partial.BytesPartialDecoder) partial.BytesPartialDecoder {
	return partial.NewDefaultBytesPartialDecoder(decodeAdapter{codec: z, inner: inner})
}
