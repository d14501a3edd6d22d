package sharding

import (
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/zerr"
)

func init() {
	codec.Default.Register(ID, fromConfig, nil, nil)
}

// fromConfig builds a Codec from a zarr.json sharding_indexed
// configuration object: {"chunk_shape": [...], "codecs": [...],
// "index_codecs": [...], "index_location": "start"|"end"}. The nested
// "codecs"/"index_codecs" entries are resolved against the same global
// registry this codec itself is registered in, so a shard's inner chain
// can use any codec, including, recursively, another sharding_indexed.
func fromConfig(config map[string]interface{}) (interface{}, error) {
	shapeRaw, ok := config["chunk_shape"]
	if !ok {
		return nil, zerr.Metadata("sharding_indexed: missing chunk_shape")
	}
	shape, err := uint64SliceFromConfig(shapeRaw)
	if err != nil {
		return nil, zerr.Metadata("sharding_indexed: chunk_shape: %v", err)
	}

	codecsRaw, ok := config["codecs"]
	if !ok {
		return nil, zerr.Metadata("sharding_indexed: missing codecs")
	}
	codecConfigs, err := codecConfigsFromConfig(codecsRaw)
	if err != nil {
		return nil, zerr.Metadata("sharding_indexed: codecs: %v", err)
	}
	innerChain, err := codec.BuildChain(codec.Default, codecConfigs)
	if err != nil {
		return nil, err
	}

	indexCodecsRaw, ok := config["index_codecs"]
	if !ok {
		return nil, zerr.Metadata("sharding_indexed: missing index_codecs")
	}
	indexCodecConfigs, err := codecConfigsFromConfig(indexCodecsRaw)
	if err != nil {
		return nil, zerr.Metadata("sharding_indexed: index_codecs: %v", err)
	}
	indexChain, err := codec.BuildChain(codec.Default, indexCodecConfigs)
	if err != nil {
		return nil, err
	}

	location := IndexEnd
	if raw, ok := config["index_location"]; ok {
		s, _ := raw.(string)
		switch s {
		case "start":
			location = IndexStart
		case "end", "":
			location = IndexEnd
		default:
			return nil, zerr.Metadata("sharding_indexed: unknown index_location %q", s)
		}
	}

	return New(shape, innerChain, indexChain, location), nil
}

func uint64SliceFromConfig(raw interface{}) ([]uint64, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, zerr.Metadata("expected an array")
	}
	out := make([]uint64, len(items))
	for i, it := range items {
		switch v := it.(type) {
		case float64:
			out[i] = uint64(v)
		case int:
			out[i] = uint64(v)
		case int64:
			out[i] = uint64(v)
		default:
			return nil, zerr.Metadata("expected a number at index %d", i)
		}
	}
	return out, nil
}

func codecConfigsFromConfig(raw interface{}) ([]codec.Config, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, zerr.Metadata("expected an array")
	}
	out := make([]codec.Config, len(items))
	for i, it := range items {
		m, ok := it.(map[string]interface{})
		if !ok {
			return nil, zerr.Metadata("expected an object at index %d", i)
		}
		name, _ := m["name"].(string)
		if name == "" {
			return nil, zerr.Metadata("codec entry %d missing name", i)
		}
		cfg, _ := m["configuration"].(map[string]interface{})
		out[i] = codec.Config{Name: name, Configuration: cfg}
	}
	return out, nil
}
