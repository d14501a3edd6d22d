// raccat reads or writes one hyper-rectangle subset of a Zarr V3 array
// backed by a directory of chunk files plus a zarr.json document, exercising
// the store, codec, and array packages end to end. It is a minimal
// exerciser, not a general Zarr CLI: it loads the whole array's chunks
// into memory up front and writes them back out afterward.
//
// Usage:
//
//	raccat [flags] <array-dir>
//
// The flags should include exactly one of -read or -write.
//
// Examples:
//
//	raccat -read -start=0,0 -shape=4,4 ./myarray > out.bin
//	raccat -write -start=0,0 -shape=4,4 ./myarray < in.bin
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zarrs-go/zarrcore/array"
	"github.com/zarrs-go/zarrcore/codec"
	_ "github.com/zarrs-go/zarrcore/codec/arraytoarray"
	_ "github.com/zarrs-go/zarrcore/codec/bytescodec"
	_ "github.com/zarrs-go/zarrcore/codec/checksum"
	_ "github.com/zarrs-go/zarrcore/codec/compressor"
	_ "github.com/zarrs-go/zarrcore/codec/packbits"
	_ "github.com/zarrs-go/zarrcore/codec/vlen"
	"github.com/zarrs-go/zarrcore/metadata"
	_ "github.com/zarrs-go/zarrcore/sharding"
	"github.com/zarrs-go/zarrcore/store"
	"github.com/zarrs-go/zarrcore/subset"
)

var (
	readFlag  = flag.Bool("read", false, "read a subset and write its raw bytes to stdout")
	writeFlag = flag.Bool("write", false, "read raw bytes from stdin and write them into a subset")
	startFlag = flag.String("start", "", "comma-separated subset start indices, e.g. 0,0")
	shapeFlag = flag.String("shape", "", "comma-separated subset shape, e.g. 4,4")
)

func main() {
	if err := main1(); err != nil {
		os.Stderr.WriteString("raccat: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func main1() error {
	flag.Parse()
	if *readFlag == *writeFlag {
		return fmt.Errorf("exactly one of -read or -write must be given")
	}
	if flag.NArg() != 1 {
		return fmt.Errorf("usage: raccat [flags] <array-dir>")
	}
	dir := flag.Arg(0)

	start, err := parseUint64List(*startFlag)
	if err != nil {
		return fmt.Errorf("-start: %w", err)
	}
	shape, err := parseUint64List(*shapeFlag)
	if err != nil {
		return fmt.Errorf("-shape: %w", err)
	}
	region := subset.New(start, shape)

	s, desc, err := loadArray(dir)
	if err != nil {
		return err
	}
	a := array.New(desc, s, store.NewDefaultLocks(), nil)

	ctx := context.Background()
	if *readFlag {
		data, err := a.ReadSubset(ctx, region)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	if err := a.WriteSubset(ctx, region, data); err != nil {
		return err
	}
	return saveArray(dir, s)
}

func parseUint64List(s string) ([]uint64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out[i] = n
	}
	return out, nil
}

// loadArray reads dir/zarr.json and every regular file under dir (other
// than zarr.json itself) into a MemStore keyed by its path relative to dir,
// with OS path separators turned into "/" to match the chunk key encoding's
// separator convention.
func loadArray(dir string) (*store.MemStore, array.Descriptor, error) {
	metaPath := filepath.Join(dir, "zarr.json")
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, array.Descriptor{}, err
	}
	parsed, err := metadata.Parse(codec.Default, metaBytes, metadata.DefaultOptions())
	if err != nil {
		return nil, array.Descriptor{}, fmt.Errorf("zarr.json: %w", err)
	}

	s := store.NewMemStore()
	ctx := context.Background()
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || path == metaPath {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return s.Set(ctx, key, data)
	})
	if err != nil {
		return nil, array.Descriptor{}, err
	}
	return s, parsed.Descriptor, nil
}

// saveArray writes every key currently in s back out under dir as a file,
// creating parent directories as needed.
func saveArray(dir string, s *store.MemStore) error {
	ctx := context.Background()
	keys, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		data, ok, err := s.Get(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		path := filepath.Join(dir, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
