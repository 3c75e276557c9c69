// Package counthll implements Count-HLL: a depth x width matrix of
// HyperLogLog-style registers shared across labels, giving per-label
// cardinality estimates without allocating a dedicated sketch per label.
// Two invertible overlays (LabelSetCountHLL, LabelArrayCountHLL) additionally
// recover the set of labels that were ever the dominant contributor to a
// register, which plain Count-HLL cannot do on its own.
package counthll

import (
	"github.com/pkg/errors"

	"github.com/fernwood-labs/dhh/hashutil"
)

// EstimationMethod selects how PointwiseSketch.Cardinality turns register
// readings into a cardinality estimate.
type EstimationMethod int

const (
	// Original applies the classic alpha-based HyperLogLog estimator to the
	// depth registers a label touches, ignoring cross-label interference.
	Original EstimationMethod = iota
	// MaximumLikelihood maximizes a composite likelihood that models both
	// the label's own signal and the background noise contributed by other
	// labels sharing the same registers. It is more accurate under heavy
	// register sharing (small width, many labels) and is the default.
	MaximumLikelihood
)

// Config holds the immutable parameters of a PointwiseSketch.
type Config struct {
	// Depth is the number of rows (hash repetitions), a power of two.
	Depth int
	// DepthLog2 caches log2(Depth) for register-index arithmetic.
	DepthLog2 int
	// Width is the number of columns per row.
	Width int
	// Seeds seed the three hash builders: row selection, level draw, and
	// column selection.
	Seeds  []uint64
	Method EstimationMethod
	// Geometric is the precomputed geometric auxiliary CDF G(z) = 1 -
	// 2^-z/Depth for z = 0..64, used by the MaximumLikelihood estimator's
	// composite likelihood in place of recomputing it at every query.
	Geometric *Distribution
}

// NewConfig validates depth and width and builds a Config. depth must be a
// power of two of at least 16 (mirroring hll.Config's minimum, since the
// per-row alpha-based Original estimator degrades the same way below that
// size); width must be positive.
func NewConfig(depth, width int, method EstimationMethod, seeds []uint64) (*Config, error) {
	if depth < 16 {
		return nil, errors.New("counthll: depth must be at least 16")
	}
	if depth&(depth-1) != 0 {
		return nil, errors.New("counthll: depth must be a power of 2")
	}
	if width <= 0 {
		return nil, errors.New("counthll: width must be positive")
	}
	if seeds != nil && len(seeds) != 6 {
		return nil, errors.Errorf("counthll: expected 6 seed words, got %d", len(seeds))
	}

	seeds = hashutil.FillSeeds(seeds, 6)

	depthLog2 := 0
	for d := depth; d > 1; d >>= 1 {
		depthLog2++
	}

	return &Config{
		Depth:     depth,
		DepthLog2: depthLog2,
		Width:     width,
		Seeds:     seeds,
		Method:    method,
		Geometric: geometricCDF(maxLevel, depth),
	}, nil
}

// Equal reports whether two Configs are interchangeable for Merge.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Depth == other.Depth &&
		c.Width == other.Width &&
		c.Method == other.Method &&
		hashutil.EqualSeeds(c.Seeds, other.Seeds)
}

// alpha mirrors hll's bias-correction table, with Count-HLL's own flat
// fallback above 512 registers rather than hll's continuous formula: the
// Count-HLL estimator averages over comparatively few (depth-many) samples
// per label, where the asymptotic formula's extra precision is not
// measurable, so the original implementation this is ported from simply
// caps the constant.
func alpha(d int) float64 {
	switch {
	case d == 16:
		return 0.673
	case d == 32:
		return 0.697
	case d == 64:
		return 0.709
	case d == 128:
		return 0.7213 / (1.0 + 1.079/128.0)
	case d == 256:
		return 0.7213 / (1.0 + 1.079/256.0)
	case d == 512:
		return 0.7213 / (1.0 + 1.079/512.0)
	default:
		return 0.721
	}
}
