// Package metadata parses and serialises a Zarr V3 array's zarr.json
// document into an array.Descriptor and back. Group-hierarchy metadata,
// user attributes, and dimension names are read-through only -- parsing a
// document with them does not fail, but this package does not interpret
// them.
package metadata

import (
	"github.com/goccy/go-json"

	"github.com/zarrs-go/zarrcore/array"
	"github.com/zarrs-go/zarrcore/chunkkey"
	"github.com/zarrs-go/zarrcore/codec"
	"github.com/zarrs-go/zarrcore/zerr"
)

// Options is a small set of independent switches threaded through
// Parse/Build rather than global configuration.
type Options struct {
	// ValidateChecksums, when false, tells checksum bytes-to-bytes codecs
	// resolved from this document's codec list to skip verification (a
	// store already known to be trustworthy). Checksum codecs still append
	// the trailer on encode regardless.
	ValidateChecksums bool
	// ExperimentalCodecStoreMetadataIfEncodeOnly reserves room, in a built
	// document, for implementation-specific metadata on codecs that are
	// encode-only capable in this build (none currently are; kept so a
	// future codec can opt in without an Options shape change).
	ExperimentalCodecStoreMetadataIfEncodeOnly bool
}

// DefaultOptions returns the spec's documented default: checksums verified,
// no experimental metadata.
func DefaultOptions() Options {
	return Options{ValidateChecksums: true}
}

// document is the wire shape of a zarr.json array node (zarr-core
// specification, v3). Only the fields this engine interprets are typed;
// attributes and dimension_names are kept as they are, and any other
// field is dropped when the document is decoded.
type document struct {
	ZarrFormat       int                    `json:"zarr_format"`
	NodeType         string                 `json:"node_type"`
	Shape            []uint64               `json:"shape"`
	DataType         json.RawMessage        `json:"data_type"`
	ChunkGrid        chunkGridDoc           `json:"chunk_grid"`
	ChunkKeyEncoding chunkKeyEncodingDoc    `json:"chunk_key_encoding"`
	FillValue        json.RawMessage        `json:"fill_value"`
	Codecs           []codecDoc             `json:"codecs"`
	Attributes       map[string]interface{} `json:"attributes,omitempty"`
	DimensionNames   []string               `json:"dimension_names,omitempty"`
}

type chunkGridDoc struct {
	Name          string `json:"name"`
	Configuration struct {
		ChunkShape []uint64 `json:"chunk_shape"`
	} `json:"configuration"`
}

type chunkKeyEncodingDoc struct {
	Name          string `json:"name"`
	Configuration struct {
		Separator string `json:"separator"`
	} `json:"configuration"`
}

type codecDoc struct {
	Name          string                 `json:"name"`
	Configuration map[string]interface{} `json:"configuration,omitempty"`
}

// Parsed is a parsed zarr.json document: the Descriptor ready to build an
// array.Array from, plus the read-through fields this package does not
// interpret.
type Parsed struct {
	Descriptor     array.Descriptor
	Attributes     map[string]interface{}
	DimensionNames []string
}

// Parse decodes a zarr.json document's bytes into a Parsed array
// descriptor, resolving its codec list against r.
func Parse(r *codec.Registry, data []byte, opts Options) (Parsed, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Parsed{}, zerr.Metadata("zarr.json: %v", err)
	}
	if doc.ZarrFormat != 3 {
		return Parsed{}, zerr.Metadata("zarr.json: unsupported zarr_format %d (only 3 is supported)", doc.ZarrFormat)
	}
	if doc.NodeType != "array" {
		return Parsed{}, zerr.Metadata("zarr.json: node_type %q is not \"array\"", doc.NodeType)
	}
	if doc.ChunkGrid.Name != "regular" {
		return Parsed{}, zerr.Metadata("zarr.json: unsupported chunk_grid %q (only \"regular\" is supported)", doc.ChunkGrid.Name)
	}
	if len(doc.ChunkGrid.Configuration.ChunkShape) != len(doc.Shape) {
		return Parsed{}, zerr.Shape("zarr.json: chunk_shape has %d dimensions, shape has %d", len(doc.ChunkGrid.Configuration.ChunkShape), len(doc.Shape))
	}

	dt, err := dataTypeFromJSON(doc.DataType)
	if err != nil {
		return Parsed{}, err
	}

	sep := chunkkey.Slash
	switch doc.ChunkKeyEncoding.Configuration.Separator {
	case "", "/":
		sep = chunkkey.Slash
	case ".":
		sep = chunkkey.Dot
	default:
		return Parsed{}, zerr.Metadata("zarr.json: unknown chunk_key_encoding separator %q", doc.ChunkKeyEncoding.Configuration.Separator)
	}
	switch doc.ChunkKeyEncoding.Name {
	case "default", "v2", "":
	default:
		return Parsed{}, zerr.Metadata("zarr.json: unsupported chunk_key_encoding %q", doc.ChunkKeyEncoding.Name)
	}

	fv, err := fillValueFromJSON(dt, doc.FillValue)
	if err != nil {
		return Parsed{}, err
	}

	if len(doc.Codecs) == 0 {
		return Parsed{}, zerr.Metadata("zarr.json: codecs list must not be empty")
	}
	configs := make([]codec.Config, len(doc.Codecs))
	for i, c := range doc.Codecs {
		configs[i] = codec.Config{Name: c.Name, Configuration: withValidateChecksums(c.Configuration, opts)}
	}
	chain, err := codec.BuildChain(r, configs)
	if err != nil {
		return Parsed{}, err
	}

	desc := array.Descriptor{
		Shape:            doc.Shape,
		ChunkShape:       doc.ChunkGrid.Configuration.ChunkShape,
		DataType:         dt,
		FillValue:        fv,
		Chain:            chain,
		ChunkKeyEncoding: chunkkey.New("", sep),
	}
	return Parsed{Descriptor: desc, Attributes: doc.Attributes, DimensionNames: doc.DimensionNames}, nil
}

// withValidateChecksums threads Options.ValidateChecksums into a checksum
// codec's own configuration object as "validate", the convention
// codec/checksum's FromConfig understands. The key is added to every
// codec's configuration that lacks it; codecs other than the checksum
// codecs ignore it.
func withValidateChecksums(cfg map[string]interface{}, opts Options) map[string]interface{} {
	if cfg == nil {
		cfg = map[string]interface{}{}
	}
	if _, ok := cfg["validate"]; !ok {
		cfg["validate"] = opts.ValidateChecksums
	}
	return cfg
}

// Build serialises desc (plus attributes/dimension names) back into a
// zarr.json document. The codec chain's shape (array-to-array order,
// single array-to-bytes, bytes-to-bytes order) is preserved exactly as
// constructed; this package does not re-derive codec configuration from a
// Chain, so Build is only meaningful for chains originally produced by
// Parse against the same configs (round-tripping the raw codecDoc list is
// the caller's responsibility when that matters -- see cmd/raccat, which
// keeps the original document around rather than rebuilding it).
func Build(desc array.Descriptor, attributes map[string]interface{}, dimensionNames []string) ([]byte, error) {
	doc := document{
		ZarrFormat: 3,
		NodeType:   "array",
		Shape:      desc.Shape,
		Attributes: attributes,
		DimensionNames: dimensionNames,
	}
	doc.ChunkGrid.Name = "regular"
	doc.ChunkGrid.Configuration.ChunkShape = desc.ChunkShape
	doc.ChunkKeyEncoding.Name = "default"
	if desc.ChunkKeyEncoding.Separator == chunkkey.Dot {
		doc.ChunkKeyEncoding.Configuration.Separator = "."
	} else {
		doc.ChunkKeyEncoding.Configuration.Separator = "/"
	}
	doc.Codecs = chainToCodecDocs(desc.Chain)

	rawDT, err := dataTypeToJSON(desc.DataType)
	if err != nil {
		return nil, err
	}
	doc.DataType = rawDT

	rawFV, err := fillValueToJSON(desc.DataType, desc.FillValue)
	if err != nil {
		return nil, err
	}
	doc.FillValue = rawFV

	return json.MarshalIndent(doc, "", "  ")
}

// chainToCodecDocs rebuilds a zarr.json "codecs" list's names, in
// array-to-array, array-to-bytes, bytes-to-bytes order, from an already
// -built Chain. Configuration objects are not recoverable from an opaque
// codec instance, so Build only round-trips a chain's codec identity, not
// every codec's exact configuration; a caller that needs the original
// document verbatim should keep it around instead (see cmd/raccat).
func chainToCodecDocs(chain codec.Chain) []codecDoc {
	docs := make([]codecDoc, 0, len(chain.ArrayToArray)+1+len(chain.BytesToBytes))
	for _, c := range chain.ArrayToArray {
		docs = append(docs, codecDoc{Name: c.ID()})
	}
	if chain.ArrayToBytes != nil {
		docs = append(docs, codecDoc{Name: chain.ArrayToBytes.ID()})
	}
	for _, c := range chain.BytesToBytes {
		docs = append(docs, codecDoc{Name: c.ID()})
	}
	return docs
}
