package store

import (
	"context"
	"testing"

	"github.com/zarrs-go/zarrcore/byterange"
)

func TestValidateKey(t *testing.T) {
	bad := []string{"", "/a", "a//b", "a/./b", "a/../b", "__meta/a", "a/__b"}
	for _, k := range bad {
		if err := ValidateKey(k); err == nil {
			t.Errorf("ValidateKey(%q): expected error", k)
		}
	}
	good := []string{"a", "a/b/c", "zarr.json", "c/0/1"}
	for _, k := range good {
		if err := ValidateKey(k); err != nil {
			t.Errorf("ValidateKey(%q): unexpected error %v", k, err)
		}
	}
}

func TestIsPrefix(t *testing.T) {
	if !IsPrefix("") {
		t.Errorf("empty string should be the root prefix")
	}
	if !IsPrefix("a/") {
		t.Errorf("trailing slash should be a prefix")
	}
	if IsPrefix("a") {
		t.Errorf("no trailing slash should not be a prefix")
	}
}

func TestMemStoreGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	if _, ok, err := m.Get(ctx, "a/b"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := m.Set(ctx, "a/b", []byte("hello")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := m.Get(ctx, "a/b")
	if err != nil || !ok || string(v) != "hello" {
		t.Fatalf("Get after Set: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := m.Erase(ctx, "a/b"); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "a/b"); ok {
		t.Fatalf("expected key erased")
	}
}

func TestMemStoreGetPartial(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	if err := m.Set(ctx, "x", []byte("0123456789")); err != nil {
		t.Fatal(err)
	}

	results, err := m.GetPartial(ctx, "x", []byterange.Range{
		byterange.FromStart(2, 3),
		byterange.Suffix(2),
		byterange.Full(),
	})
	if err != nil {
		t.Fatalf("GetPartial: %v", err)
	}
	if string(results[0].Bytes) != "234" {
		t.Errorf("range 0: got %q", results[0].Bytes)
	}
	if string(results[1].Bytes) != "89" {
		t.Errorf("range 1: got %q", results[1].Bytes)
	}
	if string(results[2].Bytes) != "0123456789" {
		t.Errorf("range 2: got %q", results[2].Bytes)
	}

	// Overflow past end is a hard error.
	_, err = m.GetPartial(ctx, "x", []byterange.Range{byterange.FromStart(5, 100)})
	if err == nil {
		t.Fatalf("expected out-of-range error")
	}

	// Absent key: every range comes back not present, no error.
	absent, err := m.GetPartial(ctx, "missing", []byterange.Range{byterange.Full()})
	if err != nil {
		t.Fatalf("unexpected error for absent key: %v", err)
	}
	if absent[0].Present {
		t.Fatalf("expected absent key's ranges to report Present=false")
	}
}

func TestMemStoreListDir(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	for _, k := range []string{"a/b", "a/c/d", "e"} {
		if err := m.Set(ctx, k, []byte("v")); err != nil {
			t.Fatal(err)
		}
	}
	keys, prefixes, err := m.ListDir(ctx, "a/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "a/b" {
		t.Errorf("keys: got %v", keys)
	}
	if len(prefixes) != 1 || prefixes[0] != "a/c/" {
		t.Errorf("prefixes: got %v", prefixes)
	}
}

func TestMemStoreErasePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	for _, k := range []string{"a/1", "a/2", "b/1"} {
		if err := m.Set(ctx, k, []byte("v")); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.ErasePrefix(ctx, "a/"); err != nil {
		t.Fatal(err)
	}
	keys, err := m.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "b/1" {
		t.Errorf("got %v", keys)
	}
}

func TestDefaultLocksExcludeSameKey(t *testing.T) {
	l := NewDefaultLocks()
	m1 := l.Mutex("k")
	m2 := l.Mutex("k")

	m1.Lock()
	done := make(chan struct{})
	go func() {
		m2.Lock()
		close(done)
		m2.Unlock()
	}()

	select {
	case <-done:
		t.Fatalf("second Lock on the same key acquired while first still held")
	default:
	}
	m1.Unlock()
	<-done
}

func TestDisabledLocksNeverBlock(t *testing.T) {
	l := DisabledLocks{}
	m1 := l.Mutex("k")
	m2 := l.Mutex("k")
	m1.Lock()
	m2.Lock() // must not deadlock
	m1.Unlock()
	m2.Unlock()
}
