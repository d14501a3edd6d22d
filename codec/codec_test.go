package codec_test

import (
	"testing"

	"github.com/zarrs-go/zarrcore/codec"
)

type fakeArrayToBytes struct{ id string }

func (f fakeArrayToBytes) ID() string { return f.id }

func TestRegistryResolvesCanonicalAndAliases(t *testing.T) {
	r := codec.NewRegistry()
	r.Register("fake", func(cfg map[string]interface{}) (interface{}, error) {
		return fakeArrayToBytes{id: "fake"}, nil
	}, []string{"fake.codec"}, []string{"numcodecs.fake"})

	for _, name := range []string{"fake", "fake.codec", "numcodecs.fake"} {
		inst, err := r.Resolve(name, nil)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", name, err)
		}
		if _, ok := inst.(fakeArrayToBytes); !ok {
			t.Fatalf("Resolve(%q): got %T", name, inst)
		}
		canonical, ok := r.Canonical(name)
		if !ok || canonical != "fake" {
			t.Fatalf("Canonical(%q) = (%q, %v), want (\"fake\", true)", name, canonical, ok)
		}
	}
}

func TestRegistryResolvePattern(t *testing.T) {
	r := codec.NewRegistry()
	r.RegisterPattern(`^numcodecs\..+$`, "numcodecs-generic", func(cfg map[string]interface{}) (interface{}, error) {
		return fakeArrayToBytes{id: "generic"}, nil
	})
	inst, err := r.Resolve("numcodecs.lz4", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if inst.(fakeArrayToBytes).id != "generic" {
		t.Fatalf("expected the pattern-matched factory to run")
	}
}

func TestRegistryResolveUnknownCodec(t *testing.T) {
	r := codec.NewRegistry()
	_, err := r.Resolve("does-not-exist", nil)
	if err == nil {
		t.Fatalf("expected an error for an unregistered codec name")
	}
}

func TestRegistryNamesIsSortedAndDeduplicated(t *testing.T) {
	r := codec.NewRegistry()
	r.Register("b", func(map[string]interface{}) (interface{}, error) { return nil, nil }, []string{"b-alias"}, nil)
	r.Register("a", func(map[string]interface{}) (interface{}, error) { return nil, nil }, nil, nil)
	names := r.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("got %v, want [a b]", names)
	}
}

func TestAsArrayToBytesRejectsWrongKind(t *testing.T) {
	_, err := codec.AsArrayToBytes(struct{}{})
	if err == nil {
		t.Fatalf("expected an error: struct{} implements no codec interface")
	}
}
