package compressor

import (
	"bytes"
	"context"
	"io"

	"github.com/ulikunitz/xz/lzma"

	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/zerr"
)

const LzmaID = "lzma"

// Lzma is the lzma bytes-to-bytes codec (numcodecs "lzma", Python's lzma
// module in "format 1"/raw-alone mode), backed by the pure-Go
// ulikunitz/xz/lzma implementation.
type Lzma struct {
	Preset int
}

func NewLzma(preset int) *Lzma { return &Lzma{Preset: preset} }

func lzmaFromConfig(config map[string]interface{}) (interface{}, error) {
	preset := 6
	if raw, ok := config["preset"]; ok {
		preset = intFromConfig(raw)
	}
	return NewLzma(preset), nil
}

func init() {
	codec.Default.Register(LzmaID, lzmaFromConfig, nil, []string{"lzma"})
}

func (l *Lzma) ID() string { return LzmaID }

func (l *Lzma) EncodedSize(int64) (int64, bool) { return 0, false }

func (l *Lzma) Encode(ctx context.Context, decoded []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(LzmaID)
	}
	if _, err := w.Write(decoded); err != nil {
		return nil, zerr.Codec(err).WithCodec(LzmaID)
	}
	if err := w.Close(); err != nil {
		return nil, zerr.Codec(err).WithCodec(LzmaID)
	}
	return buf.Bytes(), nil
}

func (l *Lzma) Decode(ctx context.Context, encoded []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(encoded))
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(LzmaID)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(LzmaID)
	}
	return out, nil
}

func (l *Lzma) PartialDecoder(inner partial.BytesPartialDecoder) partial.BytesPartialDecoder {
	return partial.NewDefaultBytesPartialDecoder(decodeAdapter{codec: l, inner: inner})
}
