package counthll_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwood-labs/dhh/counthll"
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

func newTestConfig(t *testing.T, method counthll.EstimationMethod) *counthll.Config {
	t.Helper()
	cfg, err := counthll.NewConfig(64, 32, method, nil)
	require.NoError(t, err)
	return cfg
}

func TestPointwiseSketchBasic(t *testing.T) {
	cfg := newTestConfig(t, counthll.MaximumLikelihood)
	s := counthll.New[string, int](cfg)

	for i := 0; i < 500; i++ {
		s.Insert("a", i)
	}
	for i := 0; i < 50; i++ {
		s.Insert("b", i+10000)
	}

	assert.Less(t, relativeError(s.Cardinality("a"), 500), 0.3)
	assert.Less(t, relativeError(s.Cardinality("b"), 50), 0.5)
}

func TestPointwiseSketchOriginalMethod(t *testing.T) {
	cfg := newTestConfig(t, counthll.Original)
	s := counthll.New[string, int](cfg)

	for i := 0; i < 1000; i++ {
		s.Insert("x", i)
	}

	assert.Less(t, relativeError(s.Cardinality("x"), 1000), 0.3)
}

func TestPointwiseSketchMergeConfigMismatch(t *testing.T) {
	a := counthll.New[string, int](newTestConfig(t, counthll.Original))
	otherCfg, err := counthll.NewConfig(128, 32, counthll.Original, nil)
	require.NoError(t, err)
	b := counthll.New[string, int](otherCfg)

	assert.Error(t, a.Merge(b))
}

func TestPointwiseSketchClear(t *testing.T) {
	cfg := newTestConfig(t, counthll.MaximumLikelihood)
	s := counthll.New[string, int](cfg)
	for i := 0; i < 100; i++ {
		s.Insert("a", i)
	}
	s.Clear()
	assert.Equal(t, uint64(0), s.Cardinality("a"))
}

func TestLabelSetCountHLLTop(t *testing.T) {
	cfg := newTestConfig(t, counthll.MaximumLikelihood)
	s := counthll.NewLabelSet[string, int](cfg)

	for labelNum := 1; labelNum <= 7; labelNum++ {
		label := strconv.Itoa(labelNum)
		for i := 0; i < labelNum*20; i++ {
			s.Insert(label, i)
		}
	}

	top := s.Top(10)
	require.Len(t, top, 7)
	assert.Equal(t, "7", top[0].Label)
}

func TestLabelArrayCountHLLTopNotEmpty(t *testing.T) {
	cfg := newTestConfig(t, counthll.MaximumLikelihood)
	s := counthll.NewLabelArray[string, int](cfg)

	for i := 0; i < 300; i++ {
		s.Insert("first", i)
	}
	for i := 0; i < 300; i++ {
		s.Insert("second", i+100000)
	}

	top := s.Top(5)
	assert.NotEmpty(t, top)
}

func TestCompositeLikelihoodShape(t *testing.T) {
	cfg := newTestConfig(t, counthll.MaximumLikelihood)
	s := counthll.New[string, int](cfg)

	for i := 0; i < 400; i++ {
		s.Insert("a", i)
	}
	for i := 0; i < 100; i++ {
		s.Insert("noise", i+50000)
	}

	// The composite log-likelihood is a sum of count-weighted log
	// probabilities, so it must stay non-positive and finite, and be
	// concave in n over the range Newton-Raphson searches.
	for n := 1.0; n <= 2000; n *= 2 {
		v := s.LogLikelihood("a", n)
		require.False(t, math.IsNaN(v), "CL(%v) is NaN", n)
		assert.LessOrEqual(t, v, 0.0, "CL(%v) must be non-positive", n)
	}

	// Concavity check over a uniform grid via second differences.
	const step = 25.0
	for n := step; n <= 1500; n += step {
		left := s.LogLikelihood("a", n-step+1)
		mid := s.LogLikelihood("a", n+1)
		right := s.LogLikelihood("a", n+step+1)
		assert.LessOrEqual(t, left+right-2*mid, 1e-6,
			"CL must be concave near n=%v", n)
	}
}

func TestLabelArrayCountHLLMerge(t *testing.T) {
	cfg := newTestConfig(t, counthll.MaximumLikelihood)
	a := counthll.NewLabelArray[string, int](cfg)
	b := counthll.NewLabelArray[string, int](cfg)

	for i := 0; i < 200; i++ {
		a.Insert("a", i)
	}
	for i := 0; i < 200; i++ {
		b.Insert("b", i+1000)
	}

	require.NoError(t, a.Merge(b))
	assert.Less(t, relativeError(a.Cardinality("a"), 200), 0.4)
	assert.Less(t, relativeError(a.Cardinality("b"), 200), 0.4)
}
