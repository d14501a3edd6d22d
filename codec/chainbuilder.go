package codec

import "github.com/zarrs-go/zarrcore/zerr"

// Config is one entry of a zarr.json "codecs" array: a codec name/alias
// plus its configuration object, exactly as the metadata JSON document
// represents it. Shared between the metadata package (building an array's
// top-level chain) and the sharding codec (building its own nested inner
// chain and index chain from the same shape of configuration).
type Config struct {
	Name          string
	Configuration map[string]interface{}
}

// BuildChain resolves each Config in order against r and assembles a
// Chain, enforcing the "exactly one array-to-bytes codec, array-to-array
// codecs before it, bytes-to-bytes codecs after it" shape.
func BuildChain(r *Registry, configs []Config) (Chain, error) {
	var chain Chain
	sawArrayToBytes := false
	for _, cfg := range configs {
		inst, err := r.Resolve(cfg.Name, cfg.Configuration)
		if err != nil {
			return Chain{}, err
		}
		switch v := inst.(type) {
		case ArrayToArrayCodec:
			if sawArrayToBytes {
				return Chain{}, zerr.Metadata("codec chain: array-to-array codec %q after the array-to-bytes stage", cfg.Name)
			}
			chain.ArrayToArray = append(chain.ArrayToArray, v)
		case ArrayToBytesCodec:
			if sawArrayToBytes {
				return Chain{}, zerr.Metadata("codec chain: more than one array-to-bytes codec (%q)", cfg.Name)
			}
			chain.ArrayToBytes = v
			sawArrayToBytes = true
		case BytesToBytesCodec:
			if !sawArrayToBytes {
				return Chain{}, zerr.Metadata("codec chain: bytes-to-bytes codec %q before the array-to-bytes stage", cfg.Name)
			}
			chain.BytesToBytes = append(chain.BytesToBytes, v)
		default:
			return Chain{}, zerr.Metadata("codec chain: codec %q is not any known codec stage", cfg.Name)
		}
	}
	if !sawArrayToBytes {
		return Chain{}, zerr.Metadata("codec chain: missing mandatory array-to-bytes codec")
	}
	return chain, nil
}
