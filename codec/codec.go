// Package codec defines the three codec traits of the Zarr V3 codec
// chain (array-to-array, array-to-bytes, bytes-to-bytes) and the static
// plugin registry codec subpackages register themselves into: a
// name/alias registry populated at process start rather than looked up
// by string everywhere.
package codec

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/zarrs-go/zarrcore/chunktype"
	"github.com/zarrs-go/zarrcore/partial"
	"github.com/zarrs-go/zarrcore/zerr"
)

// ArrayToArrayCodec transforms decoded array bytes into other decoded array
// bytes of a possibly different (but always fixed-width) shape: transpose,
// bitround, fixed-scale-offset, squeeze.
type ArrayToArrayCodec interface {
	ID() string

	// EncodedRepresentation returns the ChunkRep the codec's output will
	// have given a chunk of decodedRep; array->array codecs may change
	// shape (transpose permutes it, squeeze removes unit dimensions) but
	// never the element count; fixedscaleoffset also changes the data type
	// to its integer storage type.
	EncodedRepresentation(decodedRep chunktype.ChunkRep) (chunktype.ChunkRep, error)

	Encode(ctx context.Context, decoded chunktype.ArrayBytes, decodedRep chunktype.ChunkRep) (chunktype.ArrayBytes, error)
	Decode(ctx context.Context, encoded chunktype.ArrayBytes, decodedRep chunktype.ChunkRep) (chunktype.ArrayBytes, error)

	// PartialDecoder builds a partial decoder over this codec's input
	// given a partial decoder over its output. transpose uses
	// partial.NewDefaultArrayPartialDecoder, which decodes the whole chunk
	// and slices in memory; bitround, fixedscaleoffset and squeeze use
	// NewElementwisePartialDecoder, which passes the requested subsets
	// unchanged to the inner decoder.
	PartialDecoder(inner partial.ArrayPartialDecoder, decodedRep chunktype.ChunkRep) partial.ArrayPartialDecoder
}

// ArrayToBytesCodec is the one mandatory stage of every codec chain: it
// turns decoded array bytes into a byte stream, or vice versa. "bytes"
// (endian conversion) and "sharding_indexed" are the two concrete
// instances; vlen codecs are ArrayToBytesCodec too since variable-length
// data has no array->array or bytes->bytes stage that makes sense without
// first framing it.
type ArrayToBytesCodec interface {
	ID() string

	// EncodedSize returns the exact encoded byte length, when the codec's
	// output is fixed-size for the given representation; (_, false) for
	// codecs whose output length depends on the data (vlen, anything
	// chaining a compressor).
	EncodedSize(decodedRep chunktype.ChunkRep) (int64, bool)

	Encode(ctx context.Context, decoded chunktype.ArrayBytes, decodedRep chunktype.ChunkRep) ([]byte, error)
	Decode(ctx context.Context, encoded []byte, decodedRep chunktype.ChunkRep) (chunktype.ArrayBytes, error)

	// PartialDecoder builds an ArrayPartialDecoder over encoded, a
	// BytesPartialDecoder for this codec's encoded representation.
	PartialDecoder(ctx context.Context, encoded partial.BytesPartialDecoder, decodedRep chunktype.ChunkRep) (partial.ArrayPartialDecoder, error)
}

// BytesToBytesCodec transforms one byte stream into another: general
// compressors, checksums, shuffle.
type BytesToBytesCodec interface {
	ID() string

	EncodedSize(decodedSize int64) (int64, bool)

	Encode(ctx context.Context, decoded []byte) ([]byte, error)
	Decode(ctx context.Context, encoded []byte) ([]byte, error)

	// PartialDecoder builds a BytesPartialDecoder over this codec's input
	// given one over its output. Checksum codecs can pass ranges through
	// after validating (and stripping) the trailer; general compressors
	// fall back to decode-then-slice via
	// partial.NewDefaultBytesPartialDecoder.
	PartialDecoder(inner partial.BytesPartialDecoder) partial.BytesPartialDecoder
}

// Factory builds a configured codec instance from its zarr.json
// configuration object (already unmarshalled into a generic map by the
// metadata package). Each codec subpackage registers one Factory per
// codec name/alias it implements.
type Factory func(config map[string]interface{}) (interface{}, error)

type registryEntry struct {
	canonical string
	factory   Factory
	aliases   []string
	aliasesV2 []string
}

// Registry resolves a codec name (possibly a V2 alias or a regex-matched
// experimental name) to a Factory. The zero value is usable; Default is
// the process-wide instance every codec subpackage's init() registers
// into; those registrations are all exact names, and regex-matched names
// resolve only after a RegisterPattern call.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*registryEntry
	regexed []struct {
		pattern *regexp.Regexp
		entry   *registryEntry
	}
}

// Default is the global registry populated by every codec subpackage's
// init(). Callers that want isolation from process-global state (tests
// registering a fake codec) can construct their own Registry instead.
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*registryEntry)}
}

// Register adds canonical plus any aliases (V3 string aliases understood
// the same as canonical) and aliasesV2 (Zarr V2 numcodecs ids mapped onto
// this V3 codec) to the registry.
func (r *Registry) Register(canonical string, factory Factory, aliases, aliasesV2 []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &registryEntry{canonical: canonical, factory: factory, aliases: aliases, aliasesV2: aliasesV2}
	r.byName[canonical] = e
	for _, a := range aliases {
		r.byName[a] = e
	}
	for _, a := range aliasesV2 {
		r.byName[a] = e
	}
}

// RegisterPattern registers a factory matched by regular expression rather
// than exact name, used for families like "numcodecs.*" or "zfpy" variants
// whose exact id space is open-ended.
func (r *Registry) RegisterPattern(pattern string, canonical string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regexed = append(r.regexed, struct {
		pattern *regexp.Regexp
		entry   *registryEntry
	}{regexp.MustCompile(pattern), &registryEntry{canonical: canonical, factory: factory}})
}

// Resolve looks up name (as given in zarr.json, possibly a V2-style alias)
// and builds a configured codec instance from config.
func (r *Registry) Resolve(name string, config map[string]interface{}) (interface{}, error) {
	r.mu.RLock()
	e, ok := r.byName[name]
	var regexed = r.regexed
	r.mu.RUnlock()

	if !ok {
		for _, re := range regexed {
			if re.pattern.MatchString(name) {
				e = re.entry
				ok = true
				break
			}
		}
	}
	if !ok {
		return nil, zerr.Metadata("unknown codec %q", name).WithCodec(name)
	}
	inst, err := e.factory(config)
	if err != nil {
		if ze, isZ := err.(*zerr.Error); isZ {
			return nil, ze.WithCodec(e.canonical)
		}
		return nil, zerr.Codec(err).WithCodec(e.canonical)
	}
	return inst, nil
}

// Canonical reports the canonical name registered for name, or ("", false)
// if it is unknown.
func (r *Registry) Canonical(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	if !ok {
		return "", false
	}
	return e.canonical, true
}

// Names returns every canonical codec name currently registered, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]string, 0, len(r.byName))
	for _, e := range r.byName {
		if !seen[e.canonical] {
			seen[e.canonical] = true
			out = append(out, e.canonical)
		}
	}
	sort.Strings(out)
	return out
}

// AsArrayToArray, AsArrayToBytes, and AsBytesToBytes type-assert a Factory's
// product into the trait the caller needs, returning a KindMetadata error
// naming the mismatch if the codec is registered as a different kind of
// stage (e.g. a bytes-to-bytes compressor named where an array-to-bytes
// codec is required).
func AsArrayToArray(v interface{}) (ArrayToArrayCodec, error) {
	c, ok := v.(ArrayToArrayCodec)
	if !ok {
		return nil, zerr.Metadata("codec %v is not an array-to-array codec", describe(v))
	}
	return c, nil
}

func AsArrayToBytes(v interface{}) (ArrayToBytesCodec, error) {
	c, ok := v.(ArrayToBytesCodec)
	if !ok {
		return nil, zerr.Metadata("codec %v is not an array-to-bytes codec", describe(v))
	}
	return c, nil
}

func AsBytesToBytes(v interface{}) (BytesToBytesCodec, error) {
	c, ok := v.(BytesToBytesCodec)
	if !ok {
		return nil, zerr.Metadata("codec %v is not a bytes-to-bytes codec", describe(v))
	}
	return c, nil
}

func describe(v interface{}) string {
	return fmt.Sprintf("%T", v)
}
