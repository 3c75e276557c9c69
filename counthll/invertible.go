package counthll

import (
	"fmt"
	"sort"

	"github.com/fernwood-labs/dhh/sketchtraits"
)

// LabelSetCountHLL pairs a PointwiseSketch with an explicit set of every
// label ever inserted, recovering Top and an exact label universe at the
// cost of O(distinct labels) extra memory — useful when the label universe
// is small enough to enumerate but callers still want Count-HLL's
// shared-register memory savings for the per-label cardinalities.
type LabelSetCountHLL[L comparable, T comparable] struct {
	sketch *PointwiseSketch[L, T]
	labels map[L]struct{}
}

// NewLabelSet constructs an empty LabelSetCountHLL from config.
func NewLabelSet[L comparable, T comparable](config *Config) *LabelSetCountHLL[L, T] {
	return &LabelSetCountHLL[L, T]{
		sketch: New[L, T](config),
		labels: make(map[L]struct{}),
	}
}

var _ sketchtraits.HeavyDistinctHitterSketch[int, int] = (*LabelSetCountHLL[int, int])(nil)

func (s *LabelSetCountHLL[L, T]) Insert(label L, item T) {
	s.sketch.Insert(label, item)
	s.labels[label] = struct{}{}
}

func (s *LabelSetCountHLL[L, T]) Merge(other sketchtraits.HeavyDistinctHitterSketch[L, T]) error {
	o, ok := other.(*LabelSetCountHLL[L, T])
	if !ok {
		return sketchtraits.ErrIncompatibleType
	}
	if err := s.sketch.Merge(o.sketch); err != nil {
		return err
	}
	for label := range o.labels {
		s.labels[label] = struct{}{}
	}
	return nil
}

func (s *LabelSetCountHLL[L, T]) Clear() {
	s.sketch.Clear()
	s.labels = make(map[L]struct{})
}

func (s *LabelSetCountHLL[L, T]) Cardinality(label L) uint64 {
	return s.sketch.Cardinality(label)
}

// Top returns the k labels with the largest estimated cardinality, among
// all labels ever inserted. Ties are broken by the label's string form, so
// the result is deterministic despite the underlying map's randomized
// iteration order.
func (s *LabelSetCountHLL[L, T]) Top(k int) []sketchtraits.LabelCount[L] {
	entries := make([]sketchtraits.LabelCount[L], 0, len(s.labels))
	for label := range s.labels {
		entries = append(entries, sketchtraits.LabelCount[L]{
			Label: label,
			Count: s.sketch.Cardinality(label),
		})
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

// arrayCell is an "optional owner" slot: the label currently believed to be
// the dominant contributor to a register, or Present == false if the
// register has never been touched.
type arrayCell[L comparable] struct {
	Label   L
	Level   uint8
	Present bool
}

// LabelArrayCountHLL pairs a PointwiseSketch with a parallel array recording,
// for every register, the label that most recently set its highest
// observed level. This recovers an approximate Top without an explicit
// label set, at the cost of one cell per register instead of one entry per
// distinct label - cheaper when labels vastly outnumber registers.
//
// Ties are resolved in favor of the newer label: a cell updates whenever
// the incoming level is greater than or equal to the stored level.
type LabelArrayCountHLL[L comparable, T comparable] struct {
	sketch *PointwiseSketch[L, T]
	cells  []arrayCell[L]
}

// NewLabelArray constructs an empty LabelArrayCountHLL from config.
func NewLabelArray[L comparable, T comparable](config *Config) *LabelArrayCountHLL[L, T] {
	return &LabelArrayCountHLL[L, T]{
		sketch: New[L, T](config),
		cells:  make([]arrayCell[L], config.Depth*config.Width),
	}
}

var _ sketchtraits.HeavyDistinctHitterSketch[int, int] = (*LabelArrayCountHLL[int, int])(nil)

func (s *LabelArrayCountHLL[L, T]) Insert(label L, item T) {
	r := s.sketch.row(label, item)
	c := s.sketch.column(r, label)
	idx := s.sketch.index(r, c)
	z := s.sketch.level(label, item)

	if s.sketch.registers[idx] < z {
		s.sketch.registers[idx] = z
	}

	cell := &s.cells[idx]
	if z >= cell.Level {
		cell.Label = label
		cell.Level = z
		cell.Present = true
	}
}

func (s *LabelArrayCountHLL[L, T]) Merge(other sketchtraits.HeavyDistinctHitterSketch[L, T]) error {
	o, ok := other.(*LabelArrayCountHLL[L, T])
	if !ok {
		return sketchtraits.ErrIncompatibleType
	}
	if !s.sketch.config.Equal(o.sketch.config) {
		return sketchtraits.ErrConfigMismatch
	}

	for i := range s.sketch.registers {
		if o.sketch.registers[i] > s.sketch.registers[i] {
			s.sketch.registers[i] = o.sketch.registers[i]
		}
		if o.cells[i].Present && o.cells[i].Level > s.cells[i].Level {
			s.cells[i] = o.cells[i]
		}
	}
	return nil
}

func (s *LabelArrayCountHLL[L, T]) Clear() {
	s.sketch.Clear()
	for i := range s.cells {
		s.cells[i] = arrayCell[L]{}
	}
}

func (s *LabelArrayCountHLL[L, T]) Cardinality(label L) uint64 {
	return s.sketch.Cardinality(label)
}

// Top returns the k labels with the largest estimated cardinality, among
// the distinct labels currently recorded as some register's dominant
// contributor. A label dropped from every cell it once owned (overwritten
// by a newer, higher-level label) is no longer discoverable this way - the
// tradeoff for LabelArrayCountHLL's flat per-register memory cost. Ties are
// broken by each label's first appearance in register order, which is
// stable across calls since the cell array's layout never changes after
// construction.
func (s *LabelArrayCountHLL[L, T]) Top(k int) []sketchtraits.LabelCount[L] {
	seen := make(map[L]struct{})
	entries := make([]sketchtraits.LabelCount[L], 0)
	for _, cell := range s.cells {
		if !cell.Present {
			continue
		}
		if _, ok := seen[cell.Label]; ok {
			continue
		}
		seen[cell.Label] = struct{}{}
		entries = append(entries, sketchtraits.LabelCount[L]{
			Label: cell.Label,
			Count: s.sketch.Cardinality(cell.Label),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	if k < len(entries) {
		entries = entries[:k]
	}
	return entries
}
