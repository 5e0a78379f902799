package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCycle("BTCUSDT", "HOLD", 0.01)
		m.CycleFailed("BTCUSDT", "panic")
		m.Order("BTCUSDT", "BUY", "FILLED")
		m.Scores("BTCUSDT", map[string]float64{"BUY": 50}, 1)
		m.FeedCandle("1m", true)
		m.Advisor("ok")
	})
}

func TestCollectorsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCycle("BTCUSDT", "BUY", 0.02)
	m.ObserveCycle("BTCUSDT", "BUY", 0.03)
	m.Order("BTCUSDT", "BUY", "FILLED")
	m.Scores("BTCUSDT", map[string]float64{"BUY": 75, "SELL": 25}, -1.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("BTCUSDT", "BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersTotal.WithLabelValues("BTCUSDT", "BUY", "FILLED")))
	assert.Equal(t, 75.0, testutil.ToFloat64(m.AgreementScore.WithLabelValues("BTCUSDT", "BUY")))
	assert.Equal(t, -1.5, testutil.ToFloat64(m.UnrealizedPNL.WithLabelValues("BTCUSDT")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
