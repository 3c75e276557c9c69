package telemetry_test

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fernwood-labs/dhh/internal/telemetry"
)

func TestRecorderTracksInsertsAndCardinality(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := telemetry.NewRecorder(reg)

	rec.RecordInsert("hll")
	rec.RecordInsert("hll")
	rec.ObserveCardinality("hll", "alice", 42)
	rec.ObserveMemory("hll", 1024)

	families, err := reg.Gather()
	require.NoError(t, err)

	var insertCounter *dto.MetricFamily
	for _, fam := range families {
		if fam.GetName() == "dhh_inserts_total" {
			insertCounter = fam
		}
	}
	require.NotNil(t, insertCounter)
	require.Len(t, insertCounter.Metric, 1)
	require.InDelta(t, 2.0, insertCounter.Metric[0].GetCounter().GetValue(), 0.0001)
}

func TestForReturnsTaggedLogger(t *testing.T) {
	logger := telemetry.For("loader")
	require.NotNil(t, logger)
}
