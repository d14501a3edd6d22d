package compressor

import (
	"context"

	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/zerr"
)

const ShuffleID = "shuffle"

// Shuffle is the byte-shuffle bytes-to-bytes codec (numcodecs "shuffle"):
// it regroups bytes by position-within-element across the whole buffer,
// which turns a run of similar floats/ints into long runs of identical
// bytes that a downstream general compressor handles far better. Also the
// first stage blosc.go composes to build its stand-in.
type Shuffle struct {
	ElementSize int
}

func NewShuffle(elementSize int) *Shuffle { return &Shuffle{ElementSize: elementSize} }

func shuffleFromConfig(config map[string]interface{}) (interface{}, error) {
	size := 4
	if raw, ok := config["elementsize"]; ok {
		size = intFromConfig(raw)
	}
	if size <= 0 {
		return nil, zerr.Metadata("shuffle codec: elementsize must be positive, got %d", size)
	}
	return NewShuffle(size), nil
}

func init() {
	codec.Default.Register(ShuffleID, shuffleFromConfig, nil, []string{"shuffle"})
}

func (s *Shuffle) ID() string { return ShuffleID }

func (s *Shuffle) EncodedSize(decodedSize int64) (int64, bool) { return decodedSize, true }

func (s *Shuffle) Encode(ctx context.Context, decoded []byte) ([]byte, error) {
	return shuffleBytes(decoded, s.ElementSize)
}

func (s *Shuffle) Decode(ctx context.Context, encoded []byte) ([]byte, error) {
	return unshuffleBytes(encoded, s.ElementSize)
}

func (s *Shuffle) PartialDecoder(inner partial.BytesPartialDecoder) partial.BytesPartialDecoder {
	return partial.NewDefaultBytesPartialDecoder(decodeAdapter{codec: s, inner: inner})
}

// shuffleBytes transposes data, viewed as len(data)/n rows of n bytes each,
// so that all rows' byte 0 come first, then all byte 1, etc. A trailing
// partial row (len(data) % n != 0) is passed through unshuffled at the end,
// matching numcodecs' handling of buffers not a multiple of elementsize.
func shuffleBytes(data []byte, n int) ([]byte, error) {
	if n <= 1 {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}
	whole := (len(data) / n) * n
	rows := whole / n
	out := make([]byte, len(data))
	for col := 0; col < n; col++ {
		for row := 0; row < rows; row++ {
			out[col*rows+row] = data[row*n+col]
		}
	}
	copy(out[whole:], data[whole:])
	return out, nil
}

func unshuffleBytes(data []byte, n int) ([]byte, error) {
	if n <= 1 {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}
	whole := (len(data) / n) * n
	rows := whole / n
	out := make([]byte, len(data))
	for col := 0; col < n; col++ {
		for row := 0; row < rows; row++ {
			out[row*n+col] = data[col*rows+row]
		}
	}
	copy(out[whole:], data[whole:])
	return out, nil
}
