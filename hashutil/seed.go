package hashutil

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/pkg/errors"
)

func secureRandomUint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(errors.Wrap(err, "hashutil: reading random seed"))
	}
	return binary.LittleEndian.Uint64(b[:])
}

// FillSeeds returns seeds if it already has length n, or a freshly drawn
// slice of n random seed words otherwise. Every config constructor in this
// module uses this to let callers omit seeds for convenience while still
// freezing a fixed seed set at construction time.
func FillSeeds(seeds []uint64, n int) []uint64 {
	if len(seeds) == n {
		return seeds
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = secureRandomUint64()
	}
	return out
}

// EqualSeeds reports whether two seed slices are element-wise equal.
func EqualSeeds(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
