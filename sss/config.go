// Package sss implements Space-Saving Sets: a bounded map from label to a
// cardinality sub-sketch that, once full, evicts the label with the
// smallest tracked cardinality to make room for any newly seen label.
package sss

import (
	"github.com/pkg/errors"

	"github.com/fernwood-labs/dhh/hll"
)

// ResetStrategy controls what happens to an evicted counter's accumulated
// cardinality when it is reassigned to a new label.
type ResetStrategy int

const (
	// Recycle hands the evicted counter's sub-sketch to the new label with
	// its contents intact, so the new label's cardinality starts from
	// whatever the evicted label had accumulated.
	Recycle ResetStrategy = iota
	// Offset banks the evicted counter's cardinality into a running offset
	// that is added back into every future cardinality read for whichever
	// label occupies the counter, so a label's reported cardinality is an
	// upper bound that accounts for "at least this many items belonged to
	// some evicted label before me".
	Offset
)

// Config holds the immutable parameters of a SpaceSavingSets sketch.
type Config struct {
	MaxNumCounters          int
	ResetStrategy           ResetStrategy
	CardinalitySketchConfig *hll.Config
}

// NewConfig validates maxNumCounters and builds a Config.
func NewConfig(maxNumCounters int, resetStrategy ResetStrategy, cardinalitySketchConfig *hll.Config) (*Config, error) {
	if maxNumCounters <= 0 {
		return nil, errors.New("sss: max number of counters must be greater than zero")
	}
	if cardinalitySketchConfig == nil {
		return nil, errors.New("sss: cardinality sketch config must not be nil")
	}

	return &Config{
		MaxNumCounters:          maxNumCounters,
		ResetStrategy:           resetStrategy,
		CardinalitySketchConfig: cardinalitySketchConfig,
	}, nil
}

// Equal reports whether two Configs are interchangeable for Merge.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.MaxNumCounters == other.MaxNumCounters &&
		c.ResetStrategy == other.ResetStrategy &&
		c.CardinalitySketchConfig.Equal(other.CardinalitySketchConfig)
}
