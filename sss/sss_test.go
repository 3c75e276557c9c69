package sss_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwood-labs/dhh/hll"
	"github.com/fernwood-labs/dhh/internal/exactset"
	"github.com/fernwood-labs/dhh/sketchtraits"
	"github.com/fernwood-labs/dhh/sss"
)

func relativeError(estimate, actual uint64) float64 {
	if actual == 0 {
		if estimate == 0 {
			return 0
		}
		return 1
	}
	return math.Abs(float64(estimate)-float64(actual)) / float64(actual)
}

func newTestConfig(t *testing.T, strategy sss.ResetStrategy) *sss.Config {
	t.Helper()
	hllCfg, err := hll.NewConfig(256, nil)
	require.NoError(t, err)
	cfg, err := sss.NewConfig(10, strategy, hllCfg)
	require.NoError(t, err)
	return cfg
}

// fillTenLabels inserts 100 distinct items under each of labels 'a'..'j',
// exactly filling a MaxNumCounters=10 sketch with no evictions yet.
func fillTenLabels(s *sss.SpaceSavingSets[rune, int]) {
	base := 0
	for label := rune('a'); label <= 'j'; label++ {
		for i := 0; i < 100; i++ {
			s.Insert(label, base+i)
		}
		base += 1000
	}
}

func TestSpaceSavingSetsOffsetEviction(t *testing.T) {
	s := sss.New[rune, int](newTestConfig(t, sss.Offset))
	fillTenLabels(s)

	// All ten tracked labels hold ~100 items; inserting a new label 'k'
	// evicts the smallest of them, banking its ~100 cardinality into the
	// offset.
	for i := 0; i < 100; i++ {
		s.Insert('k', 100000+i)
	}

	estimate := s.Cardinality('k')
	assert.Less(t, relativeError(estimate, 200), 0.1)
}

func TestSpaceSavingSetsOffsetLabelReappears(t *testing.T) {
	s := sss.New[rune, int](newTestConfig(t, sss.Offset))
	fillTenLabels(s)

	for i := 0; i < 100; i++ {
		s.Insert('k', 100000+i)
	}

	// Re-inserting 'a' with 100 disjoint items reads about twice that:
	// either 'a' is still tracked with its first 100 items, or it takes over
	// the smallest counter and inherits its ~100 banked offset.
	for i := 0; i < 100; i++ {
		s.Insert('a', 200000+i)
	}
	estimate := s.Cardinality('a')
	assert.Less(t, relativeError(estimate, 100), 1.1)
}

func TestSpaceSavingSetsRecycleKeepsEvictedItems(t *testing.T) {
	s := sss.New[rune, int](newTestConfig(t, sss.Recycle))
	fillTenLabels(s)

	// Recycle hands the evicted label's sub-sketch to 'l' as-is, so the
	// ~100 items the old label accumulated still count toward 'l' alongside
	// its own 100 disjoint ones.
	for i := 100; i < 200; i++ {
		s.Insert('l', 100000+i)
	}

	estimate := s.Cardinality('l')
	assert.Less(t, relativeError(estimate, 200), 0.5)
}

func TestSpaceSavingSetsMergeDisjoint(t *testing.T) {
	cfg := newTestConfig(t, sss.Recycle)
	a := sss.New[rune, int](cfg)
	b := sss.New[rune, int](cfg)

	for i := 0; i < 100; i++ {
		a.Insert('x', i)
	}
	for i := 0; i < 150; i++ {
		b.Insert('y', i+100000)
	}

	require.NoError(t, a.Merge(b))
	assert.Less(t, relativeError(a.Cardinality('x'), 100), 0.1)
	assert.Less(t, relativeError(a.Cardinality('y'), 150), 0.1)
}

func TestSpaceSavingSetsMergeOverlapping(t *testing.T) {
	cfg := newTestConfig(t, sss.Recycle)
	a := sss.New[rune, int](cfg)
	b := sss.New[rune, int](cfg)

	for i := 0; i < 200; i++ {
		a.Insert('x', i)
	}
	for i := 100; i < 300; i++ {
		b.Insert('x', i)
	}

	require.NoError(t, a.Merge(b))
	assert.Less(t, relativeError(a.Cardinality('x'), 300), 0.1)
}

func TestSpaceSavingSetsMergeConfigMismatch(t *testing.T) {
	a := sss.New[rune, int](newTestConfig(t, sss.Recycle))
	b := sss.New[rune, int](newTestConfig(t, sss.Offset))
	assert.Error(t, a.Merge(b))
}

func TestSpaceSavingSetsCardinalityFallsBackToFloor(t *testing.T) {
	s := sss.New[rune, int](newTestConfig(t, sss.Recycle))
	assert.Equal(t, uint64(0), s.Cardinality('z'))

	for i := 0; i < 50; i++ {
		s.Insert('a', i)
	}
	assert.Less(t, relativeError(s.Cardinality('q'), 50), 0.1)
}

func TestSpaceSavingSetsClear(t *testing.T) {
	s := sss.New[rune, int](newTestConfig(t, sss.Offset))
	fillTenLabels(s)
	require.NotZero(t, s.Cardinality('a'))

	s.Clear()
	assert.Equal(t, uint64(0), s.Cardinality('a'))
	assert.Empty(t, s.Top(10))
}

func TestSpaceSavingSetsEvictsTrueMinimumWithExactSketch(t *testing.T) {
	s := sss.NewWithSketch[string, int](
		newTestConfig(t, sss.Offset),
		func() sketchtraits.CardinalitySketch[int] { return exactset.New[int]() },
	)

	// Ten labels with strictly increasing exact cardinalities 1..10.
	for n := 1; n <= 10; n++ {
		label := fmt.Sprintf("label-%d", n)
		for i := 0; i < n; i++ {
			s.Insert(label, i)
		}
	}

	// The next new label must evict label-1, the unique minimum, banking
	// its exact cardinality of 1 into the offset.
	s.Insert("newcomer", 0)
	assert.Equal(t, uint64(2), s.Cardinality("newcomer"))
	assert.Equal(t, uint64(10), s.Cardinality("label-10"))
}

func TestSpaceSavingSetsTop(t *testing.T) {
	s := sss.New[rune, int](newTestConfig(t, sss.Recycle))
	for label := rune('a'); label <= 'e'; label++ {
		n := int(label-'a'+1) * 20
		for i := 0; i < n; i++ {
			s.Insert(label, i)
		}
	}

	top := s.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, 'e', top[0].Label)
}
