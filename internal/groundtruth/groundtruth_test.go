package groundtruth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwood-labs/dhh/internal/groundtruth"
	"github.com/fernwood-labs/dhh/sketchtraits"
)

func TestGroundTruthCardinality(t *testing.T) {
	g := groundtruth.New[string, int]()
	for i := 0; i < 37; i++ {
		g.Insert("a", i)
	}
	assert.Equal(t, uint64(37), g.Cardinality("a"))
	assert.Equal(t, uint64(0), g.Cardinality("missing"))
}

func TestGroundTruthTopAndCoverage(t *testing.T) {
	g := groundtruth.New[string, int]()
	for i := 0; i < 10; i++ {
		g.Insert("small", i)
	}
	for i := 0; i < 100; i++ {
		g.Insert("big", i+1000)
	}

	top := g.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, "big", top[0].Label)

	coverage := g.TopKCoverage(1, []sketchtraits.LabelCount[string]{{Label: "big", Count: 95}})
	assert.Equal(t, 1.0, coverage)

	coverage = g.TopKCoverage(1, []sketchtraits.LabelCount[string]{{Label: "small", Count: 9}})
	assert.Equal(t, 0.0, coverage)
}

func TestGroundTruthMerge(t *testing.T) {
	a := groundtruth.New[string, int]()
	b := groundtruth.New[string, int]()
	a.Insert("x", 1)
	b.Insert("x", 2)
	b.Insert("y", 3)

	require.NoError(t, a.Merge(b))
	assert.Equal(t, uint64(2), a.Cardinality("x"))
	assert.Equal(t, uint64(1), a.Cardinality("y"))
}
