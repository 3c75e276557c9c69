package hll_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwood-labs/dhh/hll"
)

func relativeError(estimate, actual uint64) float64 {
	if actual == 0 {
		if estimate == 0 {
			return 0
		}
		return 1
	}
	diff := float64(estimate) - float64(actual)
	return math.Abs(diff) / float64(actual)
}

func newTestHLL(t *testing.T, numRegisters int) *hll.HLL[int] {
	t.Helper()
	cfg, err := hll.NewConfig(numRegisters, []uint64{1, 2, 3, 4})
	require.NoError(t, err)
	return hll.New[int](cfg)
}

func TestHyperLogLog(t *testing.T) {
	t.Run("Basic", func(t *testing.T) {
		h := newTestHLL(t, 256)
		assert.Equal(t, uint64(0), h.Cardinality())

		for i := 0; i < 1000; i++ {
			h.Insert(i)
		}

		estimate := h.Cardinality()
		assert.Less(t, relativeError(estimate, 1000), 0.1)
	})

	t.Run("Merge", func(t *testing.T) {
		a := newTestHLL(t, 256)
		b := newTestHLL(t, 256)

		for i := 0; i < 500; i++ {
			a.Insert(i)
		}
		for i := 250; i < 750; i++ {
			b.Insert(i)
		}

		require.NoError(t, a.Merge(b))
		assert.Less(t, relativeError(a.Cardinality(), 750), 0.1)
	})

	t.Run("MergeConfigMismatch", func(t *testing.T) {
		a := newTestHLL(t, 256)
		for i := 0; i < 100; i++ {
			a.Insert(i)
		}
		before := a.Cardinality()

		b := newTestHLL(t, 64)
		for i := 0; i < 100; i++ {
			b.Insert(i + 1000)
		}

		assert.Error(t, a.Merge(b))
		assert.Equal(t, before, a.Cardinality(), "failed merge must not mutate the receiver")
	})

	t.Run("MergeIdempotent", func(t *testing.T) {
		a := newTestHLL(t, 256)
		b := newTestHLL(t, 256)
		for i := 0; i < 500; i++ {
			a.Insert(i)
			b.Insert(i)
		}
		before := a.Cardinality()

		require.NoError(t, a.Merge(b))
		assert.Equal(t, before, a.Cardinality(), "merging an identical sketch must not change the estimate")
	})

	t.Run("Clear", func(t *testing.T) {
		h := newTestHLL(t, 128)
		for i := 0; i < 100; i++ {
			h.Insert(i)
		}
		require.NotZero(t, h.Cardinality())

		h.Clear()
		assert.Equal(t, uint64(0), h.Cardinality())
	})

	t.Run("RepeatedInsertIsIdempotent", func(t *testing.T) {
		h := newTestHLL(t, 128)
		for i := 0; i < 50; i++ {
			h.Insert(7)
		}
		assert.Equal(t, uint64(1), h.Cardinality())
	})
}

func TestHyperLogLogAccuracyAcrossCardinalities(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping accuracy sweep in short mode")
	}

	for _, n := range []int{10, 100, 1000, 6000, 20000} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			h := newTestHLL(t, 512)
			for i := 0; i < n; i++ {
				h.Insert(i)
			}
			estimate := h.Cardinality()
			err := relativeError(estimate, uint64(n))
			t.Logf("n=%d estimate=%d relative_error=%.4f", n, estimate, err)
			assert.Less(t, err, 0.15)
		})
	}
}

func TestHyperLogLogInsertedThreeTimesStaysAccurate(t *testing.T) {
	h := newTestHLL(t, 512)
	for rep := 0; rep < 3; rep++ {
		for i := 0; i < 6000; i++ {
			h.Insert(i)
		}
	}

	estimate := h.Cardinality()
	assert.GreaterOrEqual(t, estimate, uint64(5700))
	assert.LessOrEqual(t, estimate, uint64(6300))
}

func TestNewConfigRejectsBadInputs(t *testing.T) {
	_, err := hll.NewConfig(24, nil)
	assert.Error(t, err, "not a power of two")

	_, err = hll.NewConfig(8, nil)
	assert.Error(t, err, "below the minimum register count")

	cfg, err := hll.NewConfig(16, nil)
	require.NoError(t, err)
	assert.Len(t, cfg.Seeds, 4)
}
