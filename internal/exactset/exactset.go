// Package exactset provides a deterministic, exact implementation of
// sketchtraits.CardinalitySketch backed by a real set, used as a ground
// truth in tests that exercise generic sketch-composing code (e.g. sss and
// ssss's Counter types) independently of any approximation error.
package exactset

import "github.com/fernwood-labs/dhh/sketchtraits"

// Set is an exact CardinalitySketch: Cardinality always returns the true
// number of distinct items inserted.
type Set[T comparable] struct {
	items map[T]struct{}
}

// New constructs an empty Set.
func New[T comparable]() *Set[T] {
	return &Set[T]{items: make(map[T]struct{})}
}

var _ sketchtraits.CardinalitySketch[int] = (*Set[int])(nil)

func (s *Set[T]) Insert(item T) {
	s.items[item] = struct{}{}
}

func (s *Set[T]) Merge(other sketchtraits.CardinalitySketch[T]) error {
	o, ok := other.(*Set[T])
	if !ok {
		return sketchtraits.ErrIncompatibleType
	}
	for item := range o.items {
		s.items[item] = struct{}{}
	}
	return nil
}

func (s *Set[T]) Clear() {
	s.items = make(map[T]struct{})
}

func (s *Set[T]) Cardinality() uint64 {
	return uint64(len(s.items))
}
