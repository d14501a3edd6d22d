package chunkkey

import "testing"

func TestKeySlash(t *testing.T) {
	e := New("myarray", Slash)
	if got := e.Key([]uint64{1, 2}); got != "myarray/c/1/2" {
		t.Errorf("got %q", got)
	}
}

func TestKeyDot(t *testing.T) {
	e := New("myarray", Dot)
	if got := e.Key([]uint64{1, 2}); got != "myarray/c.1.2" {
		t.Errorf("got %q", got)
	}
}

func TestKeyEmptyDims(t *testing.T) {
	e := New("myarray", Slash)
	if got := e.Key(nil); got != "myarray/c" {
		t.Errorf("got %q, want scalar array's key to be just \"P/c\"", got)
	}
}

func TestKeyPrefixWithTrailingSlash(t *testing.T) {
	e := New("myarray/", Slash)
	if got := e.Key([]uint64{0}); got != "myarray/c/0" {
		t.Errorf("got %q", got)
	}
}

func TestKeyEmptyPrefix(t *testing.T) {
	e := New("", Slash)
	if got := e.Key([]uint64{3}); got != "c/3" {
		t.Errorf("got %q", got)
	}
}
