package ssss

import (
	"fmt"
	"math"
	"sort"

	"github.com/fernwood-labs/dhh/hashutil"
	"github.com/fernwood-labs/dhh/hll"
	"github.com/fernwood-labs/dhh/sketchtraits"
)

// SamplingSpaceSavingSets implements the HeavyDistinctHitterSketch interface
// with a bounded number of tracked labels and a cheap sampling gate that
// avoids scanning for the minimum-cardinality counter on every insert once
// the map is full.
type SamplingSpaceSavingSets[L comparable, T comparable] struct {
	config    *Config
	hasher    hashutil.Builder
	newSketch func() sketchtraits.CardinalitySketch[T]
	counters  map[L]*sketchtraits.Cached[T]
	threshold uint64
}

// New constructs an empty SamplingSpaceSavingSets sketch from config, using
// a HyperLogLog as each counter's cardinality sub-sketch.
func New[L comparable, T comparable](config *Config) *SamplingSpaceSavingSets[L, T] {
	return NewWithSketch[L, T](config, func() sketchtraits.CardinalitySketch[T] {
		return hll.New[T](config.CardinalitySketchConfig)
	})
}

// NewWithSketch constructs an empty SamplingSpaceSavingSets sketch whose
// counters are backed by newSketch instead of the default HyperLogLog. Two
// sketches only merge cleanly when both were built with the same config and
// sub-sketch constructor.
func NewWithSketch[L comparable, T comparable](config *Config, newSketch func() sketchtraits.CardinalitySketch[T]) *SamplingSpaceSavingSets[L, T] {
	return &SamplingSpaceSavingSets[L, T]{
		config:    config,
		hasher:    hashutil.NewBuilder(config.Seeds[0], config.Seeds[1]),
		newSketch: newSketch,
		counters:  make(map[L]*sketchtraits.Cached[T], config.MaxNumCounters),
	}
}

var _ sketchtraits.HeavyDistinctHitterSketch[int, int] = (*SamplingSpaceSavingSets[int, int])(nil)

func (s *SamplingSpaceSavingSets[L, T]) newCounter() *sketchtraits.Cached[T] {
	return sketchtraits.NewCached(s.newSketch())
}

// cheapCardinalityEstimate is a single-hash proxy for "how rare is this
// item", cheap enough to evaluate on every insert: items that hash closer
// to zero are treated as evidence of a larger underlying set, the same
// min-hash intuition HyperLogLog's leading-zero draw uses, but collapsed to
// one hash and one arithmetic division instead of a register update.
func (s *SamplingSpaceSavingSets[L, T]) cheapCardinalityEstimate(item T) uint64 {
	h := hashutil.HashOne(s.hasher, item)
	if h == 0 {
		return math.MaxUint64
	}
	return math.MaxUint64 / h
}

// Insert adds item to the set associated with label.
func (s *SamplingSpaceSavingSets[L, T]) Insert(label L, item T) {
	if c, ok := s.counters[label]; ok {
		c.Insert(item)
		return
	}

	if len(s.counters) < s.config.MaxNumCounters {
		c := s.newCounter()
		c.Insert(item)
		s.counters[label] = c
		return
	}

	estimate := s.cheapCardinalityEstimate(item)
	if estimate <= s.threshold {
		return
	}

	minLabel, minCounter, minCardinality := s.minCounter()
	s.threshold = minCardinality

	if estimate <= minCardinality {
		return
	}

	delete(s.counters, minLabel)
	minCounter.Insert(item)
	s.counters[label] = minCounter
}

func (s *SamplingSpaceSavingSets[L, T]) minCounter() (L, *sketchtraits.Cached[T], uint64) {
	var minLabel L
	var min *sketchtraits.Cached[T]
	var minCardinality uint64 = math.MaxUint64

	for label, c := range s.counters {
		if card := c.Cardinality(); card < minCardinality {
			minLabel = label
			min = c
			minCardinality = card
		}
	}
	return minLabel, min, minCardinality
}

// Merge combines this sketch with another built from an equal Config,
// keeping only the MaxNumCounters labels with the largest cardinality
// afterward and setting the threshold to the resulting minimum.
func (s *SamplingSpaceSavingSets[L, T]) Merge(other sketchtraits.HeavyDistinctHitterSketch[L, T]) error {
	o, ok := other.(*SamplingSpaceSavingSets[L, T])
	if !ok {
		return sketchtraits.ErrIncompatibleType
	}
	if !s.config.Equal(o.config) {
		return sketchtraits.ErrConfigMismatch
	}

	for label, oc := range o.counters {
		if c, exists := s.counters[label]; exists {
			if err := c.Merge(oc); err != nil {
				return err
			}
			continue
		}
		c := s.newCounter()
		if err := c.Merge(oc); err != nil {
			return err
		}
		s.counters[label] = c
	}

	if len(s.counters) > s.config.MaxNumCounters {
		type entry struct {
			label L
			card  uint64
		}
		entries := make([]entry, 0, len(s.counters))
		for label, c := range s.counters {
			entries = append(entries, entry{label, c.Cardinality()})
		}
		// Ties at the trim boundary resolve by label string form, so which
		// entries survive does not depend on map iteration order.
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].card != entries[j].card {
				return entries[i].card > entries[j].card
			}
			return fmt.Sprintf("%v", entries[i].label) < fmt.Sprintf("%v", entries[j].label)
		})
		for _, e := range entries[s.config.MaxNumCounters:] {
			delete(s.counters, e.label)
		}
	}

	s.threshold = math.MaxUint64
	for _, c := range s.counters {
		if card := c.Cardinality(); card < s.threshold {
			s.threshold = card
		}
	}
	if len(s.counters) == 0 {
		s.threshold = 0
	}

	return nil
}

// Clear resets the sketch to its newly-constructed state, discarding every
// counter and the sampling threshold.
func (s *SamplingSpaceSavingSets[L, T]) Clear() {
	s.counters = make(map[L]*sketchtraits.Cached[T], s.config.MaxNumCounters)
	s.threshold = 0
}

// Cardinality returns the estimated cardinality of the set associated with
// label, falling back to the smallest tracked cardinality (or zero, if
// nothing is tracked) for any label not currently tracked.
func (s *SamplingSpaceSavingSets[L, T]) Cardinality(label L) uint64 {
	if c, ok := s.counters[label]; ok {
		return c.Cardinality()
	}

	if len(s.counters) == 0 {
		return 0
	}

	var min uint64 = math.MaxUint64
	for _, c := range s.counters {
		if card := c.Cardinality(); card < min {
			min = card
		}
	}
	return min
}

// Top returns the k tracked labels with the largest estimated cardinality.
// Ties are broken by the label's string form, so the result is deterministic
// despite the underlying map's randomized iteration order.
func (s *SamplingSpaceSavingSets[L, T]) Top(k int) []sketchtraits.LabelCount[L] {
	entries := make([]sketchtraits.LabelCount[L], 0, len(s.counters))
	for label, c := range s.counters {
		entries = append(entries, sketchtraits.LabelCount[L]{Label: label, Count: c.Cardinality()})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return fmt.Sprintf("%v", entries[i].Label) < fmt.Sprintf("%v", entries[j].Label)
	})
	if k < len(entries) {
		entries = entries[:k]
	}
	return entries
}
