// Package ssss implements Sampling Space-Saving Sets: a Space-Saving Sets
// variant that, once full, only considers evicting its minimum-cardinality
// counter for a new label when a cheap single-hash cardinality proxy for
// the incoming item clears a monotone threshold, trading a small amount of
// accuracy for far fewer full counter scans under heavy-tailed traffic.
package ssss

import (
	"github.com/pkg/errors"

	"github.com/fernwood-labs/dhh/hashutil"
	"github.com/fernwood-labs/dhh/hll"
)

// Config holds the immutable parameters of a SamplingSpaceSavingSets sketch.
type Config struct {
	MaxNumCounters          int
	Seeds                   []uint64
	CardinalitySketchConfig *hll.Config
}

// NewConfig validates maxNumCounters and builds a Config, drawing a random
// seed if seeds is nil.
func NewConfig(maxNumCounters int, cardinalitySketchConfig *hll.Config, seeds []uint64) (*Config, error) {
	if maxNumCounters <= 0 {
		return nil, errors.New("ssss: max number of counters must be greater than zero")
	}
	if cardinalitySketchConfig == nil {
		return nil, errors.New("ssss: cardinality sketch config must not be nil")
	}
	if seeds != nil && len(seeds) != 2 {
		return nil, errors.Errorf("ssss: expected 2 seed words, got %d", len(seeds))
	}

	seeds = hashutil.FillSeeds(seeds, 2)

	return &Config{
		MaxNumCounters:          maxNumCounters,
		Seeds:                   seeds,
		CardinalitySketchConfig: cardinalitySketchConfig,
	}, nil
}

// Equal reports whether two Configs are interchangeable for Merge.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.MaxNumCounters == other.MaxNumCounters &&
		hashutil.EqualSeeds(c.Seeds, other.Seeds) &&
		c.CardinalitySketchConfig.Equal(other.CardinalitySketchConfig)
}
