package store

import (
	"strings"

	"github.com/zarrs-go/zarrcore/zerr"
)

// ValidateKey checks that key is a slash-separated UTF-8 path whose
// components are non-empty, not "." or "..", and do not start with "__".
func ValidateKey(key string) error {
	if key == "" {
		return zerr.Shape("store key must not be empty")
	}
	if strings.HasPrefix(key, "/") {
		return zerr.Shape("store key %q must not start with '/'", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" {
			return zerr.Shape("store key %q has an empty path component", key)
		}
		if part == "." || part == ".." {
			return zerr.Shape("store key %q has a %q path component", key, part)
		}
		if strings.HasPrefix(part, "__") {
			return zerr.Shape("store key %q has a path component starting with '__'", key)
		}
	}
	return nil
}

// IsPrefix reports whether key denotes a store prefix: a key ending in "/",
// or the empty string for the root.
func IsPrefix(key string) bool {
	return key == "" || strings.HasSuffix(key, "/")
}
