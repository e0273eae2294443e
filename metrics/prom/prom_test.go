package prom

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/rcuhash/lfht/metrics"
)

func TestCollectorExportsRegisteredMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	size := metrics.NewGauge()
	size.Update(16)
	require.NoError(t, reg.Register("size", size))

	promReg := prometheus.NewRegistry()
	MustRegister(promReg, NewCollector("lfht", reg))

	got, err := promReg.Gather()
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "lfht_size", got[0].GetName())
	require.Equal(t, dto.MetricType_GAUGE, got[0].GetType())
	require.InDelta(t, 16, got[0].Metric[0].GetGauge().GetValue(), 0)
}
