package compressor

import (
	"bytes"
	"context"
	"io"

	"github.com/dsnet/compress/bzip2"

	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/zerr"
)

const Bz2ID = "bz2"

// Bz2 is the bzip2 bytes-to-bytes codec (numcodecs "bz2"), backed by
// dsnet/compress/bzip2 since the standard library's compress/bzip2 is
// decode-only and this codec needs a writer for Encode.
type Bz2 struct {
	Level int
}

func NewBz2(level int) *Bz2 { return &Bz2{Level: level} }

func bz2FromConfig(config map[string]interface{}) (interface{}, error) {
	level := 9
	if raw, ok := config["level"]; ok {
		level = intFromConfig(raw)
	}
	return NewBz2(level), nil
}

func init() {
	codec.Default.Register(Bz2ID, bz2FromConfig, nil, []string{"bz2"})
}

func (b *Bz2) ID() string { return Bz2ID }

func (b *Bz2) EncodedSize(int64) (int64, bool) { return 0, false }

func (b *Bz2) Encode(ctx context.Context, decoded []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: b.Level})
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(Bz2ID)
	}
	if _, err := w.Write(decoded); err != nil {
		return nil, zerr.Codec(err).WithCodec(Bz2ID)
	}
	if err := w.Close(); err != nil {
		return nil, zerr.Codec(err).WithCodec(Bz2ID)
	}
	return buf.Bytes(), nil
}

func (b *Bz2) Decode(ctx context.Context, encoded []byte) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(encoded), nil)
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(Bz2ID)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(Bz2ID)
	}
	return out, nil
}

func (b *Bz2) PartialDecoder(inner partial.BytesPartialDecoder) partial.BytesPartialDecoder {
	return partial.NewDefaultBytesPartialDecoder(decodeAdapter{codec: b, inner: inner})
}
