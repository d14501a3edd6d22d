package metadata

import (
	"testing"

	"github.com/zarrs-go/zarrcore/chunkkey"
	"github.com/zarrs-go/zarrcore/codec"

	_ "github.com/zarrs-go/zarrcore/codec/bytescodec"
	_ "github.com/zarrs-go/zarrcore/codec/checksum"
	_ "github.com/zarrs-go/zarrcore/codec/compressor"
)

const sampleZarrJSON = `{
  "zarr_format": 3,
  "node_type": "array",
  "shape": [4, 4],
  "data_type": "int32",
  "chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [2, 2]}},
  "chunk_key_encoding": {"name": "default", "configuration": {"separator": "/"}},
  "fill_value": 0,
  "codecs": [
    {"name": "bytes", "configuration": {"endian": "little"}},
    {"name": "gzip", "configuration": {"level": 5}}
  ],
  "attributes": {"units": "meters"}
}`

func TestParseBuildsDescriptor(t *testing.T) {
	parsed, err := Parse(codec.Default, []byte(sampleZarrJSON), DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d := parsed.Descriptor
	if len(d.Shape) != 2 || d.Shape[0] != 4 || d.Shape[1] != 4 {
		t.Fatalf("got shape %v, want [4 4]", d.Shape)
	}
	if len(d.ChunkShape) != 2 || d.ChunkShape[0] != 2 {
		t.Fatalf("got chunk shape %v, want [2 2]", d.ChunkShape)
	}
	if d.ChunkKeyEncoding.Separator != chunkkey.Slash {
		t.Fatalf("expected the default slash separator")
	}
	if d.Chain.ArrayToBytes == nil || d.Chain.ArrayToBytes.ID() != "bytes" {
		t.Fatalf("expected the bytes codec as the array-to-bytes stage")
	}
	if len(d.Chain.BytesToBytes) != 1 || d.Chain.BytesToBytes[0].ID() != "gzip" {
		t.Fatalf("expected gzip as the sole bytes-to-bytes stage")
	}
	if parsed.Attributes["units"] != "meters" {
		t.Fatalf("expected attributes to round trip as a read-through map")
	}
}

func TestParseRejectsUnsupportedZarrFormat(t *testing.T) {
	doc := `{"zarr_format": 2, "node_type": "array", "shape": [1], "data_type": "int32",
	  "chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [1]}},
	  "chunk_key_encoding": {"name": "default", "configuration": {}},
	  "fill_value": 0, "codecs": [{"name": "bytes"}]}`
	_, err := Parse(codec.Default, []byte(doc), DefaultOptions())
	if err == nil {
		t.Fatalf("expected an error for zarr_format != 3")
	}
}

func TestParseRejectsEmptyCodecsList(t *testing.T) {
	doc := `{"zarr_format": 3, "node_type": "array", "shape": [1], "data_type": "int32",
	  "chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [1]}},
	  "chunk_key_encoding": {"name": "default", "configuration": {}},
	  "fill_value": 0, "codecs": []}`
	_, err := Parse(codec.Default, []byte(doc), DefaultOptions())
	if err == nil {
		t.Fatalf("expected an error for an empty codecs list")
	}
}

func TestParseRejectsChunkShapeDimensionMismatch(t *testing.T) {
	doc := `{"zarr_format": 3, "node_type": "array", "shape": [4, 4], "data_type": "int32",
	  "chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [2]}},
	  "chunk_key_encoding": {"name": "default", "configuration": {}},
	  "fill_value": 0, "codecs": [{"name": "bytes"}]}`
	_, err := Parse(codec.Default, []byte(doc), DefaultOptions())
	if err == nil {
		t.Fatalf("expected an error for chunk_shape/shape dimensionality mismatch")
	}
}

func TestParseThreadsValidateChecksumsIntoCodecConfig(t *testing.T) {
	doc := `{"zarr_format": 3, "node_type": "array", "shape": [2], "data_type": "uint8",
	  "chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [2]}},
	  "chunk_key_encoding": {"name": "default", "configuration": {}},
	  "fill_value": 0,
	  "codecs": [{"name": "bytes"}, {"name": "crc32c"}]}`
	opts := Options{ValidateChecksums: false}
	parsed, err := Parse(codec.Default, []byte(doc), opts)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed.Descriptor.Chain.BytesToBytes) != 1 {
		t.Fatalf("expected crc32c in the chain")
	}
}

func TestBuildRoundTripsThroughParse(t *testing.T) {
	parsed, err := Parse(codec.Default, []byte(sampleZarrJSON), DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	built, err := Build(parsed.Descriptor, parsed.Attributes, parsed.DimensionNames)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	reparsed, err := Parse(codec.Default, built, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse(Build(...)): %v\n%s", err, built)
	}
	if len(reparsed.Descriptor.Shape) != 2 || reparsed.Descriptor.Shape[0] != 4 {
		t.Fatalf("got shape %v after round trip, want [4 4]", reparsed.Descriptor.Shape)
	}
	if reparsed.Descriptor.Chain.ArrayToBytes.ID() != "bytes" {
		t.Fatalf("expected the array-to-bytes codec to survive the round trip")
	}
	if len(reparsed.Descriptor.Chain.BytesToBytes) != 1 || reparsed.Descriptor.Chain.BytesToBytes[0].ID() != "gzip" {
		t.Fatalf("expected gzip to survive the round trip")
	}
}

func TestFillValueNaNRoundTrip(t *testing.T) {
	doc := `{"zarr_format": 3, "node_type": "array", "shape": [2], "data_type": "float64",
	  "chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [2]}},
	  "chunk_key_encoding": {"name": "default", "configuration": {}},
	  "fill_value": "NaN",
	  "codecs": [{"name": "bytes"}]}`
	parsed, err := Parse(codec.Default, []byte(doc), DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	raw, err := fillValueToJSON(parsed.Descriptor.DataType, parsed.Descriptor.FillValue)
	if err != nil {
		t.Fatalf("fillValueToJSON: %v", err)
	}
	if string(raw) != `"NaN"` {
		t.Fatalf("got %s, want \"NaN\"", raw)
	}
}
