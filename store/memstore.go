package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/zarrs-go/zarrcore/byterange"
	"github.com/zarrs-go/zarrcore/zerr"
)

// MemStore is an in-memory Store. It is safe for concurrent use.
type MemStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string][]byte)}
}

var _ Store = (*MemStore)(nil)

func (m *MemStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemStore) GetPartial(_ context.Context, key string, ranges []byterange.Range) ([]PartialValue, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()

	out := make([]PartialValue, len(ranges))
	if !ok {
		for i := range out {
			out[i] = PartialValue{Present: false}
		}
		return out, nil
	}
	size := int64(len(v))
	for i, r := range ranges {
		start, end, err := r.Resolve(size)
		if err != nil {
			return nil, zerr.Store(err).WithKey(key)
		}
		b := make([]byte, end-start)
		copy(b, v[start:end])
		out[i] = PartialValue{Bytes: b, Present: true}
	}
	return out, nil
}

func (m *MemStore) Size(_ context.Context, key string) (int64, bool, error) {
	if err := ValidateKey(key); err != nil {
		return 0, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return 0, false, nil
	}
	return int64(len(v)), true, nil
}

func (m *MemStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.values))
	for k := range m.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemStore) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []string{}
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemStore) ListDir(_ context.Context, prefix string) ([]string, []string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := []string{}
	prefixSet := map[string]bool{}
	for k := range m.values {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			prefixSet[prefix+rest[:idx+1]] = true
		} else {
			keys = append(keys, k)
		}
	}
	prefixes := make([]string, 0, len(prefixSet))
	for p := range prefixSet {
		prefixes = append(prefixes, p)
	}
	sort.Strings(keys)
	sort.Strings(prefixes)
	return keys, prefixes, nil
}

func (m *MemStore) Set(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	out := make([]byte, len(value))
	copy(out, value)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = out
	return nil
}

func (m *MemStore) SetPartial(_ context.Context, key string, writes []PartialWrite) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.values[key]
	for _, w := range writes {
		end := w.Offset + int64(len(w.Bytes))
		if end > int64(len(v)) {
			grown := make([]byte, end)
			copy(grown, v)
			v = grown
		}
		copy(v[w.Offset:end], w.Bytes)
	}
	m.values[key] = v
	return nil
}

func (m *MemStore) Erase(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemStore) ErasePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			delete(m.values, k)
		}
	}
	return nil
}

// TotalSize returns the sum of every value's length, the optional
// whole-store size() operation.
func (m *MemStore) TotalSize() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, v := range m.values {
		total += int64(len(v))
	}
	return total
}
