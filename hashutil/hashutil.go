// Package hashutil provides the seeded, composite-key hashing primitives
// shared by every sketch in this module. All sketches hash arbitrary
// comparable Go values by rendering them to a canonical byte form and
// running them through a seeded non-cryptographic 64-bit hash family
// (murmur3), rather than relying on a single unseeded hash.
package hashutil

import (
	"fmt"

	"github.com/twmb/murmur3"
)

// Builder is a seeded hash function. Two Builders with the same seed pair
// always produce the same hash for the same input; different seed pairs are
// expected (though not guaranteed) to be pairwise independent, which is what
// lets sketches draw several "independent" observations from one hash
// family instead of needing distinct hash implementations.
type Builder struct {
	seed1 uint64
	seed2 uint64
}

// NewBuilder returns a Builder seeded by the given pair of seed words.
func NewBuilder(seed1, seed2 uint64) Builder {
	return Builder{seed1: seed1, seed2: seed2}
}

// HashBytes hashes a raw byte slice, folding murmur3's 128-bit output into a
// single uint64 via XOR, the same fold used throughout the datasketches-go
// murmur3 call sites this package is grounded on.
func (b Builder) HashBytes(data []byte) uint64 {
	h1, h2 := murmur3.SeedSum128(b.seed1, b.seed2, data)
	return h1 ^ h2
}

// HashString hashes a string's bytes.
func (b Builder) HashString(s string) uint64 {
	return b.HashBytes([]byte(s))
}

// canonicalBytes renders an arbitrary comparable value to a deterministic
// byte form suitable for hashing. %#v (rather than the teacher's %v) is used
// so that distinct values that stringify identically under %v (e.g. the
// string "1" and the int 1) do not collide.
func canonicalBytes(v any) []byte {
	return []byte(fmt.Sprintf("%#v", v))
}

// HashOne hashes a single value.
func HashOne[T any](b Builder, v T) uint64 {
	return b.HashBytes(canonicalBytes(v))
}

// HashPair hashes a composite (a, b) key, used by components that mix an
// item with a label, or a row index with a label, into one hash draw.
func HashPair[A any, B any](h Builder, a A, bb B) uint64 {
	buf := append(canonicalBytes(a), ':')
	buf = append(buf, canonicalBytes(bb)...)
	return h.HashBytes(buf)
}

// SecureSeed draws a cryptographically random seed word, used by every
// config constructor in this module to fill in seeds the caller did not
// supply explicitly.
func SecureSeed() uint64 {
	return secureRandomUint64()
}
