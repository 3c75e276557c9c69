package sss

import (
	"fmt"
	"math"
	"sort"

	"github.com/fernwood-labs/dhh/hll"
	"github.com/fernwood-labs/dhh/sketchtraits"
)

// counter is one slot of the bounded map: a cached cardinality sub-sketch
// plus an offset banked from whichever labels previously occupied this slot
// under the Offset reset strategy.
type counter[T comparable] struct {
	cached    *sketchtraits.Cached[T]
	offset    uint64
	insertSeq uint64
}

// reset prepares a counter to be reassigned to a new label. Recycle keeps
// the sub-sketch's contents, so the new label inherits whatever the old one
// accumulated; Offset banks the current cardinality into the offset and
// clears the sub-sketch, so the new label starts from an additive floor
// instead of inheriting specific items.
func (c *counter[T]) reset(strategy ResetStrategy) {
	switch strategy {
	case Offset:
		c.offset += c.cached.Cardinality()
		c.cached.Clear()
	case Recycle:
	}
}

func (c *counter[T]) cardinality() uint64 {
	return c.cached.Cardinality() + c.offset
}

// SpaceSavingSets implements the HeavyDistinctHitterSketch interface with a
// bounded number of tracked labels, evicting the label with the smallest
// tracked cardinality whenever a new label arrives on a full map.
type SpaceSavingSets[L comparable, T comparable] struct {
	config    *Config
	newSketch func() sketchtraits.CardinalitySketch[T]
	counters  map[L]*counter[T]
	seq       uint64
}

// New constructs an empty SpaceSavingSets sketch from config, using a
// HyperLogLog as each counter's cardinality sub-sketch.
func New[L comparable, T comparable](config *Config) *SpaceSavingSets[L, T] {
	return NewWithSketch[L, T](config, func() sketchtraits.CardinalitySketch[T] {
		return hll.New[T](config.CardinalitySketchConfig)
	})
}

// NewWithSketch constructs an empty SpaceSavingSets sketch whose counters
// are backed by newSketch instead of the default HyperLogLog. Two sketches
// only merge cleanly when both were built with the same config and
// sub-sketch constructor.
func NewWithSketch[L comparable, T comparable](config *Config, newSketch func() sketchtraits.CardinalitySketch[T]) *SpaceSavingSets[L, T] {
	return &SpaceSavingSets[L, T]{
		config:    config,
		newSketch: newSketch,
		counters:  make(map[L]*counter[T], config.MaxNumCounters),
	}
}

var _ sketchtraits.HeavyDistinctHitterSketch[int, int] = (*SpaceSavingSets[int, int])(nil)

func (s *SpaceSavingSets[L, T]) newCounter() *counter[T] {
	return &counter[T]{cached: sketchtraits.NewCached(s.newSketch())}
}

// Insert adds item to the set associated with label, possibly evicting the
// label with the smallest tracked cardinality if label is new and the map
// is already full.
func (s *SpaceSavingSets[L, T]) Insert(label L, item T) {
	if c, ok := s.counters[label]; ok {
		c.cached.Insert(item)
		return
	}

	if len(s.counters) < s.config.MaxNumCounters {
		c := s.newCounter()
		s.seq++
		c.insertSeq = s.seq
		c.cached.Insert(item)
		s.counters[label] = c
		return
	}

	minLabel, minCounter := s.minCounter()
	delete(s.counters, minLabel)
	minCounter.reset(s.config.ResetStrategy)
	minCounter.cached.Insert(item)
	s.seq++
	minCounter.insertSeq = s.seq
	s.counters[label] = minCounter
}

func (s *SpaceSavingSets[L, T]) minCounter() (L, *counter[T]) {
	var minLabel L
	var min *counter[T]
	var minCardinality uint64 = math.MaxUint64

	for label, c := range s.counters {
		card := c.cardinality()
		if card < minCardinality || (card == minCardinality && (min == nil || c.insertSeq < min.insertSeq)) {
			minLabel = label
			min = c
			minCardinality = card
		}
	}
	return minLabel, min
}

// Merge combines this sketch with another built from an equal Config,
// keeping only the MaxNumCounters labels with the largest cardinality
// afterward.
func (s *SpaceSavingSets[L, T]) Merge(other sketchtraits.HeavyDistinctHitterSketch[L, T]) error {
	o, ok := other.(*SpaceSavingSets[L, T])
	if !ok {
		return sketchtraits.ErrIncompatibleType
	}
	if !s.config.Equal(o.config) {
		return sketchtraits.ErrConfigMismatch
	}

	for label, oc := range o.counters {
		if c, exists := s.counters[label]; exists {
			if err := c.cached.Merge(oc.cached); err != nil {
				return err
			}
			c.offset += oc.offset
			continue
		}
		c := s.newCounter()
		if err := c.cached.Merge(oc.cached); err != nil {
			return err
		}
		c.offset = oc.offset
		s.seq++
		c.insertSeq = s.seq
		s.counters[label] = c
	}

	if len(s.counters) > s.config.MaxNumCounters {
		type entry struct {
			label L
			card  uint64
		}
		entries := make([]entry, 0, len(s.counters))
		for label, c := range s.counters {
			entries = append(entries, entry{label, c.cardinality()})
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

	return nil
}

// Clear resets the sketch to its newly-constructed state, discarding every
// counter along with its banked offset.
func (s *SpaceSavingSets[L, T]) Clear() {
	s.counters = make(map[L]*counter[T], s.config.MaxNumCounters)
	s.seq = 0
}

// Cardinality returns the estimated cardinality of the set associated with
// label. A label that is not currently tracked falls back to the smallest
// cardinality among tracked labels (since any untracked label was either
// never seen or evicted while at or below that size), or zero if nothing is
// tracked at all - the same "tracked, else floor" convention SSSS uses.
func (s *SpaceSavingSets[L, T]) Cardinality(label L) uint64 {
	if c, ok := s.counters[label]; ok {
		return c.cardinality()
	}

	if len(s.counters) == 0 {
		return 0
	}

	var min uint64 = math.MaxUint64
	for _, c := range s.counters {
		if card := c.cardinality(); card < min {
			min = card
		}
	}
	return min
}

// Top returns the k tracked labels with the largest estimated cardinality.
// Ties are broken by the label's string form, so the result is deterministic
// despite the underlying map's randomized iteration order.
func (s *SpaceSavingSets[L, T]) Top(k int) []sketchtraits.LabelCount[L] {
	entries := make([]sketchtraits.LabelCount[L], 0, len(s.counters))
	for label, c := range s.counters {
		entries = append(entries, sketchtraits.LabelCount[L]{Label: label, Count: c.cardinality()})
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
