// Package spread implements SpreadSketch: a depth x width table of buckets,
// each owned by the label whose (label, item) hash achieved the bucket's
// highest leading-zero level, giving an invertible, count-min-sketch-style
// structure that recovers both per-label cardinality and the top-k labels.
package spread

import (
	"github.com/pkg/errors"

	"github.com/fernwood-labs/dhh/hashutil"
	"github.com/fernwood-labs/dhh/hll"
)

// Config holds the immutable parameters of a SpreadSketch.
type Config struct {
	// NumRows is the number of independent hash repetitions.
	NumRows int
	// NumCols is the number of buckets per row.
	NumCols int
	// Seeds seed the two hash builders: bucket-column selection, and the
	// global level draw shared by every row.
	Seeds []uint64
	// CardinalitySketchConfig configures the per-bucket HLL sub-sketch.
	CardinalitySketchConfig *hll.Config
}

// NewConfig validates numRows and numCols and builds a Config.
func NewConfig(numRows, numCols int, cardinalitySketchConfig *hll.Config, seeds []uint64) (*Config, error) {
	if numRows <= 0 {
		return nil, errors.New("spread: number of rows must be positive")
	}
	if numCols <= 0 {
		return nil, errors.New("spread: number of columns must be positive")
	}
	if cardinalitySketchConfig == nil {
		return nil, errors.New("spread: cardinality sketch config must not be nil")
	}
	if seeds != nil && len(seeds) != 4 {
		return nil, errors.Errorf("spread: expected 4 seed words, got %d", len(seeds))
	}

	seeds = hashutil.FillSeeds(seeds, 4)

	return &Config{
		NumRows:                 numRows,
		NumCols:                 numCols,
		Seeds:                   seeds,
		CardinalitySketchConfig: cardinalitySketchConfig,
	}, nil
}

// Equal reports whether two Configs are interchangeable for Merge.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.NumRows == other.NumRows &&
		c.NumCols == other.NumCols &&
		hashutil.EqualSeeds(c.Seeds, other.Seeds) &&
		c.CardinalitySketchConfig.Equal(other.CardinalitySketchConfig)
}
