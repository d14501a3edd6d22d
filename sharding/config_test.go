package sharding

import (
	"testing"

	"github.com/zarrs-go/zarrcore/codec"

	_ "github.com/zarrs-go/zarrcore/codec/bytescodec"
	_ "github.com/zarrs-go/zarrcore/codec/checksum"
)

func sampleConfig() map[string]interface{} {
	return map[string]interface{}{
		"chunk_shape": []interface{}{float64(2), float64(2)},
		"codecs": []interface{}{
			map[string]interface{}{"name": "bytes", "configuration": map[string]interface{}{"endian": "little"}},
		},
		"index_codecs": []interface{}{
			map[string]interface{}{"name": "bytes", "configuration": map[string]interface{}{"endian": "little"}},
			map[string]interface{}{"name": "crc32c"},
		},
		"index_location": "start",
	}
}

func TestFromConfigBuildsCodec(t *testing.T) {
	inst, err := fromConfig(sampleConfig())
	if err != nil {
		t.Fatalf("fromConfig: %v", err)
	}
	c, ok := inst.(*Codec)
	if !ok {
		t.Fatalf("expected *Codec, got %T", inst)
	}
	if len(c.InnerChunkShape) != 2 || c.InnerChunkShape[0] != 2 || c.InnerChunkShape[1] != 2 {
		t.Fatalf("got inner chunk shape %v, want [2 2]", c.InnerChunkShape)
	}
	if c.Location != IndexStart {
		t.Fatalf("got location %v, want IndexStart", c.Location)
	}
	if c.InnerCodecs.ArrayToBytes == nil {
		t.Fatalf("expected an inner array-to-bytes codec")
	}
	if c.IndexCodecs.ArrayToBytes == nil || len(c.IndexCodecs.BytesToBytes) != 1 {
		t.Fatalf("expected index chain with bytes + one bytes-to-bytes stage")
	}
}

func TestFromConfigDefaultsIndexLocationToEnd(t *testing.T) {
	cfg := sampleConfig()
	delete(cfg, "index_location")
	inst, err := fromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	c := inst.(*Codec)
	if c.Location != IndexEnd {
		t.Fatalf("got location %v, want IndexEnd (the default)", c.Location)
	}
}

func TestFromConfigRejectsMissingChunkShape(t *testing.T) {
	cfg := sampleConfig()
	delete(cfg, "chunk_shape")
	_, err := fromConfig(cfg)
	if err == nil {
		t.Fatalf("expected an error for missing chunk_shape")
	}
}

func TestFromConfigRejectsUnknownIndexLocation(t *testing.T) {
	cfg := sampleConfig()
	cfg["index_location"] = "sideways"
	_, err := fromConfig(cfg)
	if err == nil {
		t.Fatalf("expected an error for an unrecognized index_location")
	}
}

func TestShardingRegisteredUnderItsCanonicalName(t *testing.T) {
	if canonical, ok := codec.Default.Canonical(ID); !ok || canonical != ID {
		t.Fatalf("expected sharding_indexed to be registered under its own name")
	}
}
