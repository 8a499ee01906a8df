// Package names computes the 32-bit name hashes used as lookup keys.
//
// The writer and the reader must agree on this function: a database built
// with one hash cannot be queried by text with another.
package names

import "github.com/cespare/xxhash/v2"

// Hash returns the 32-bit hash of text.
//
// The empty text hashes to 0, which is reserved for "no name". No other text
// hashes to 0.
func Hash(text string) uint32 {
	if text == "" {
		return 0
	}
	return fold(xxhash.Sum64String(text))
}

// Qualify joins a name to the name of its enclosing scope. Names in the
// global scope are returned as they are.
func Qualify(scope string, name string) string {
	if scope == "" {
		return name
	}
	return scope + Separator + name
}

// Separator joins scope names in qualified names.
const Separator = "::"

func fold(h uint64) uint32 {
	v := uint32(h) ^ uint32(h>>32)
	if v == 0 {
		return 1
	}
	return v
}
