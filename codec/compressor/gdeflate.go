package compressor

import (
	"bytes"
	"context"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/zerr"
)

const GdeflateID = "gdeflate"

// Gdeflate is aliased onto plain deflate (klauspost/compress/flate).
// nvCOMP's gdeflate splits input into independently-compressed tiles so a
// GPU can decode them in parallel; each tile's payload is itself a
// standard deflate stream, so a single-threaded deflate decoder still
// decodes a gdeflate stream correctly -- it just can't exploit the
// tiling's parallelism, which is an encode-time concern only. This codec
// does not reproduce nvCOMP's tiled container framing; it round-trips
// through one deflate stream for the whole chunk.
type Gdeflate struct {
	Level int
}

func NewGdeflate(level int) *Gdeflate { return &Gdeflate{Level: level} }

func gdeflateFromConfig(config map[string]interface{}) (interface{}, error) {
	level := flate.DefaultCompression
	if raw, ok := config["level"]; ok {
		level = intFromConfig(raw)
	}
	return NewGdeflate(level), nil
}

func init() {
	codec.Default.Register(GdeflateID, gdeflateFromConfig, nil, nil)
}

func (g *Gdeflate) ID() string { return GdeflateID }

func (g *Gdeflate) EncodedSize(int64) (int64, bool) { return 0, false }

func (g *Gdeflate) Encode(ctx context.Context, decoded []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, g.Level)
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(GdeflateID)
	}
	if _, err := w.Write(decoded); err != nil {
		return nil, zerr.Codec(err).WithCodec(GdeflateID)
	}
	if err := w.Close(); err != nil {
		return nil, zerr.Codec(err).WithCodec(GdeflateID)
	}
	return buf.Bytes(), nil
}

func (g *Gdeflate) Decode(ctx context.Context, encoded []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(encoded))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, zerr.Codec(err).WithCodec(GdeflateID)
	}
	return out, nil
}

func (g *Gdeflate) PartialDecoder(inner partial.BytesPartialDecoder) partial.BytesPartialDecoder {
	return partial.NewDefaultBytesPartialDecoder(decodeAdapter{codec: g, inner: inner})
}
