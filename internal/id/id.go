// Package id generates opaque identifiers for records that are never enumerated by clients.
//
// Relational rows (users, books, ...) use integer keys; token identifiers use
// prefixed NanoIDs so they cannot be guessed from neighbouring values.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes in use.
const (
	PrefixToken = "tok"
)

// tokenIDLength gives 40 characters of the NanoID alphabet (~238 bits).
const tokenIDLength = 40

// Generate creates a prefixed unique ID using a default-length NanoID.
// Format: prefix-nanoid (e.g., "tok-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	return generate(prefix, 21)
}

// Token creates an identifier for an access token row.
func Token() (string, error) {
	return generate(PrefixToken, tokenIDLength)
}

// HasPrefix reports whether value was generated with prefix.
func HasPrefix(value, prefix string) bool {
	return strings.HasPrefix(value, prefix+"-") && len(value) > len(prefix)+1
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

func generate(prefix string, size int) (string, error) {
	id, err := gonanoid.New(size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}
