package ssss_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwood-labs/dhh/hll"
	"github.com/fernwood-labs/dhh/ssss"
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

func newTestConfig(t *testing.T) *ssss.Config {
	t.Helper()
	hllCfg, err := hll.NewConfig(256, nil)
	require.NoError(t, err)
	cfg, err := ssss.NewConfig(10, hllCfg, []uint64{11, 22})
	require.NoError(t, err)
	return cfg
}

func TestSamplingSpaceSavingSetsBasic(t *testing.T) {
	s := ssss.New[int, int](newTestConfig(t))

	for label := 10; label <= 100; label += 10 {
		for item := 0; item < label; item++ {
			s.Insert(label, item)
		}
	}

	top := s.Top(5)
	require.Len(t, top, 5)
	assert.Equal(t, 100, top[0].Label)
}

func TestSamplingSpaceSavingSetsMergeDisjoint(t *testing.T) {
	cfg := newTestConfig(t)
	a := ssss.New[int, int](cfg)
	b := ssss.New[int, int](cfg)

	for label := 10; label <= 100; label += 10 {
		for item := 0; item < label; item++ {
			a.Insert(label, item)
		}
	}
	for label := 50; label <= 150; label += 10 {
		for item := 100; item < label+100; item++ {
			b.Insert(label, item)
		}
	}

	require.NoError(t, a.Merge(b))

	estimate := a.Cardinality(150)
	assert.Less(t, relativeError(estimate, 150), 0.2)
}

func TestSamplingSpaceSavingSetsMergeConfigMismatch(t *testing.T) {
	a := ssss.New[int, int](newTestConfig(t))
	hllCfg, err := hll.NewConfig(256, nil)
	require.NoError(t, err)
	otherCfg, err := ssss.NewConfig(10, hllCfg, []uint64{1, 2})
	require.NoError(t, err)
	b := ssss.New[int, int](otherCfg)

	assert.Error(t, a.Merge(b))
}

func TestSamplingSpaceSavingSetsCardinalityFallsBackToFloor(t *testing.T) {
	s := ssss.New[int, int](newTestConfig(t))
	assert.Equal(t, uint64(0), s.Cardinality(42))
}

func TestSamplingSpaceSavingSetsClear(t *testing.T) {
	s := ssss.New[int, int](newTestConfig(t))
	for label := 0; label < 5; label++ {
		for item := 0; item < 50; item++ {
			s.Insert(label, item)
		}
	}
	require.NotZero(t, s.Cardinality(0))

	s.Clear()
	assert.Equal(t, uint64(0), s.Cardinality(0))
	assert.Empty(t, s.Top(10))
}

func TestSamplingSpaceSavingSetsThresholdMonotone(t *testing.T) {
	s := ssss.New[int, int](newTestConfig(t))

	for label := 0; label < 10; label++ {
		for item := 0; item < 50; item++ {
			s.Insert(label, item+label*1000)
		}
	}

	before := s.Cardinality(0)

	for item := 0; item < 10000; item++ {
		s.Insert(10000+item, item)
	}

	after := s.Cardinality(0)
	// Once full, low-cardinality labels can only be evicted, never shrink.
	if after != 0 {
		assert.GreaterOrEqual(t, after, before)
	}
}
