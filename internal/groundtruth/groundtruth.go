// Package groundtruth provides an exact, unbounded reference
// implementation of sketchtraits.HeavyDistinctHitterSketch, used by tests
// and the demo CLI's verification mode to measure a real sketch's error
// against the true answer rather than another approximation.
package groundtruth

import (
	"sort"

	"github.com/fernwood-labs/dhh/sketchtraits"
)

// GroundTruth tracks the exact set of items ever inserted under each label,
// with no memory bound and no eviction - only appropriate for tests and
// small demo datasets, never for production traffic volumes.
type GroundTruth[L comparable, T comparable] struct {
	sets map[L]map[T]struct{}
}

// New constructs an empty GroundTruth.
func New[L comparable, T comparable]() *GroundTruth[L, T] {
	return &GroundTruth[L, T]{sets: make(map[L]map[T]struct{})}
}

var _ sketchtraits.HeavyDistinctHitterSketch[int, int] = (*GroundTruth[int, int])(nil)

func (g *GroundTruth[L, T]) Insert(label L, item T) {
	set, ok := g.sets[label]
	if !ok {
		set = make(map[T]struct{})
		g.sets[label] = set
	}
	set[item] = struct{}{}
}

func (g *GroundTruth[L, T]) Merge(other sketchtraits.HeavyDistinctHitterSketch[L, T]) error {
	o, ok := other.(*GroundTruth[L, T])
	if !ok {
		return sketchtraits.ErrIncompatibleType
	}
	for label, items := range o.sets {
		for item := range items {
			g.Insert(label, item)
		}
	}
	return nil
}

func (g *GroundTruth[L, T]) Clear() {
	g.sets = make(map[L]map[T]struct{})
}

func (g *GroundTruth[L, T]) Cardinality(label L) uint64 {
	return uint64(len(g.sets[label]))
}

func (g *GroundTruth[L, T]) Top(k int) []sketchtraits.LabelCount[L] {
	entries := make([]sketchtraits.LabelCount[L], 0, len(g.sets))
	for label, items := range g.sets {
		entries = append(entries, sketchtraits.LabelCount[L]{Label: label, Count: uint64(len(items))})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	if k < len(entries) {
		entries = entries[:k]
	}
	return entries
}

// TopKCoverage reports how many of the true top-k labels (by GroundTruth)
// also appear among a sketch's reported top-k labels, the diagnostic the
// original benchmarking harness computed to judge whether a sketch's
// approximation errors were concentrated on small labels or were distorting
// the heavy-hitter ranking itself.
func (g *GroundTruth[L, T]) TopKCoverage(k int, sketchTop []sketchtraits.LabelCount[L]) float64 {
	truth := g.Top(k)
	if len(truth) == 0 {
		return 1
	}

	inSketch := make(map[L]struct{}, len(sketchTop))
	for _, e := range sketchTop {
		inSketch[e.Label] = struct{}{}
	}

	hits := 0
	for _, e := range truth {
		if _, ok := inSketch[e.Label]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}
