// Package hll implements a HyperLogLog cardinality estimator: a constant-
// memory sketch that answers approximate-distinct-count queries over a
// stream of inserted items.
package hll

import (
	"github.com/pkg/errors"

	"github.com/fernwood-labs/dhh/hashutil"
)

// Config holds the immutable parameters of a HyperLogLog sketch. Two
// sketches can only be merged if their Configs are equal.
type Config struct {
	// NumRegisters is the number of registers (buckets), a power of two.
	NumRegisters int
	// Alpha is the bias-correction constant for NumRegisters.
	Alpha float64
	// Seeds seed the sketch's two hash builders: register index selection
	// and the leading-zero level draw.
	Seeds []uint64
}

// alpha returns the bias-correction constant for m registers, tabulated for
// the common small sizes and falling back to the asymptotic formula
// otherwise. The 128/256/512 cases evaluate the same asymptotic formula as
// the default branch, so they return exactly the values the fallback would.
func alpha(m int) float64 {
	switch m {
	case 16:
		return 0.673
	case 32:
		return 0.697
	case 64:
		return 0.709
	case 128:
		return 0.7213 / (1.0 + 1.079/128.0)
	case 256:
		return 0.7213 / (1.0 + 1.079/256.0)
	case 512:
		return 0.7213 / (1.0 + 1.079/512.0)
	default:
		return 0.7213 / (1.0 + 1.079/float64(m))
	}
}

// NewConfig validates numRegisters and builds a Config, drawing random seeds
// if seeds is nil. numRegisters must be a power of two of at least 16: a
// register count below 16 makes the bias-correction formula meaningless and
// is rejected here rather than silently producing a poor estimate.
func NewConfig(numRegisters int, seeds []uint64) (*Config, error) {
	if numRegisters < 16 {
		return nil, errors.New("hll: number of registers must be at least 16")
	}
	if numRegisters&(numRegisters-1) != 0 {
		return nil, errors.New("hll: number of registers must be a power of 2")
	}
	if seeds != nil && len(seeds) != 4 {
		return nil, errors.Errorf("hll: expected 4 seed words, got %d", len(seeds))
	}

	seeds = hashutil.FillSeeds(seeds, 4)

	return &Config{
		NumRegisters: numRegisters,
		Alpha:        alpha(numRegisters),
		Seeds:        seeds,
	}, nil
}

// Equal reports whether two Configs are interchangeable for Merge.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.NumRegisters == other.NumRegisters && hashutil.EqualSeeds(c.Seeds, other.Seeds)
}
