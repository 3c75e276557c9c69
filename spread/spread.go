package spread

import (
	"math/bits"
	"sort"

	"github.com/fernwood-labs/dhh/hashutil"
	"github.com/fernwood-labs/dhh/hll"
	"github.com/fernwood-labs/dhh/sketchtraits"
)

// bucket is a single cell of the SpreadSketch table: an optional owning
// label, the level at which it claimed ownership, and a cardinality
// sub-sketch accumulating every item ever routed to this bucket regardless
// of which label sent it (the count-min-sketch trick that lets
// Cardinality take the minimum across rows to cancel out collisions).
type bucket[L comparable, T comparable] struct {
	label   L
	present bool
	level   uint8
	sketch  *hll.HLL[T]
}

func newBucket[L comparable, T comparable](cfg *hll.Config) *bucket[L, T] {
	return &bucket[L, T]{sketch: hll.New[T](cfg)}
}

// update routes item into the bucket's sub-sketch and, if l is at least the
// bucket's current level, makes label the new owner. Ties favor the new
// label, matching the tie-break LabelArrayCountHLL uses.
func (b *bucket[L, T]) update(label L, item T, l uint8) {
	b.sketch.Insert(item)
	if l >= b.level {
		b.label = label
		b.level = l
		b.present = true
	}
}

func (b *bucket[L, T]) count() uint64 {
	return b.sketch.Cardinality()
}

// merge combines two buckets' sub-sketches and resolves ownership in favor
// of the strictly higher level, matching the original's bucket merge rule
// (unlike per-insert updates, simultaneous ties at merge time keep the
// receiver's existing owner rather than flipping on every re-merge).
func (b *bucket[L, T]) merge(other *bucket[L, T]) error {
	if other.present && (!b.present || other.level > b.level) {
		b.label = other.label
		b.level = other.level
		b.present = other.present
	}
	return b.sketch.Merge(other.sketch)
}

// SpreadSketch tracks, for each of a bounded number of rows, a row of
// buckets; a label's cardinality is read as the minimum bucket cardinality
// across rows, and Top enumerates every label that currently owns at least
// one bucket.
type SpreadSketch[L comparable, T comparable] struct {
	config      *Config
	levelHasher hashutil.Builder
	colHasher   hashutil.Builder
	buckets     []*bucket[L, T]
}

// New constructs an empty SpreadSketch from config.
func New[L comparable, T comparable](config *Config) *SpreadSketch[L, T] {
	buckets := make([]*bucket[L, T], config.NumRows*config.NumCols)
	for i := range buckets {
		buckets[i] = newBucket[L, T](config.CardinalitySketchConfig)
	}
	return &SpreadSketch[L, T]{
		config:      config,
		levelHasher: hashutil.NewBuilder(config.Seeds[0], config.Seeds[1]),
		colHasher:   hashutil.NewBuilder(config.Seeds[2], config.Seeds[3]),
		buckets:     buckets,
	}
}

var _ sketchtraits.HeavyDistinctHitterSketch[int, int] = (*SpreadSketch[int, int])(nil)

func (s *SpreadSketch[L, T]) index(row, col int) int {
	return row*s.config.NumCols + col
}

// Insert routes item into one bucket per row. The level (a leading-zero
// count of a hash over the pair, shared by every row) determines whether
// this insert can overwrite the bucket's current owner.
func (s *SpreadSketch[L, T]) Insert(label L, item T) {
	level := uint8(bits.LeadingZeros64(hashutil.HashPair(s.levelHasher, label, item))) + 1

	for row := 0; row < s.config.NumRows; row++ {
		col := int(hashutil.HashPair(s.colHasher, row, label)) % s.config.NumCols
		if col < 0 {
			col += s.config.NumCols
		}
		s.buckets[s.index(row, col)].update(label, item, level)
	}
}

// Merge combines this sketch with another built from an equal Config.
func (s *SpreadSketch[L, T]) Merge(other sketchtraits.HeavyDistinctHitterSketch[L, T]) error {
	o, ok := other.(*SpreadSketch[L, T])
	if !ok {
		return sketchtraits.ErrIncompatibleType
	}
	if !s.config.Equal(o.config) {
		return sketchtraits.ErrConfigMismatch
	}

	for i := range s.buckets {
		if err := s.buckets[i].merge(o.buckets[i]); err != nil {
			return err
		}
	}
	return nil
}

// Clear is intentionally unsupported: SpreadSketch's sub-sketches and
// owner levels have no cheap reset path distinct from reallocation, so
// callers that need a fresh sketch should construct a new one with New
// instead. This mirrors the upstream algorithm, which never implements
// Clear for SpreadSketch either.
func (s *SpreadSketch[L, T]) Clear() {
	panic("spread: Clear is not supported; construct a new SpreadSketch instead")
}

// Cardinality estimates the cardinality of label's set as the minimum
// cardinality across the one bucket per row that label would route
// through, which cancels out most collision noise from other labels.
func (s *SpreadSketch[L, T]) Cardinality(label L) uint64 {
	var min uint64 = ^uint64(0)
	for row := 0; row < s.config.NumRows; row++ {
		col := int(hashutil.HashPair(s.colHasher, row, label)) % s.config.NumCols
		if col < 0 {
			col += s.config.NumCols
		}
		c := s.buckets[s.index(row, col)].count()
		if c < min {
			min = c
		}
	}
	return min
}

// Top returns the k labels with the largest estimated cardinality, among
// labels that currently own at least one bucket. Ties are broken by each
// label's first appearance in row-major bucket order, which is stable
// across calls since the bucket table's layout never changes after
// construction.
func (s *SpreadSketch[L, T]) Top(k int) []sketchtraits.LabelCount[L] {
	seen := make(map[L]struct{})
	entries := make([]sketchtraits.LabelCount[L], 0)
	for _, b := range s.buckets {
		if !b.present {
			continue
		}
		if _, ok := seen[b.label]; ok {
			continue
		}
		seen[b.label] = struct{}{}
		entries = append(entries, sketchtraits.LabelCount[L]{
			Label: b.label,
			Count: s.Cardinality(b.label),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	if k < len(entries) {
		entries = entries[:k]
	}
	return entries
}
