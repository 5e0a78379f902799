package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the trading engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CyclesTotal     *prometheus.CounterVec // labels: symbol, action
	CycleFailures   *prometheus.CounterVec // labels: symbol, kind
	CycleDuration   prometheus.Histogram
	OrdersTotal     *prometheus.CounterVec // labels: symbol, side, status
	AgreementScore  *prometheus.GaugeVec   // labels: symbol, action
	UnrealizedPNL   *prometheus.GaugeVec   // labels: symbol
	FeedCandles     *prometheus.CounterVec // labels: interval, final
	AdvisorRequests *prometheus.CounterVec // labels: result
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_cycles_total",
			Help: "Decision cycles completed, by final action",
		}, []string{"symbol", "action"}),
		CycleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_cycle_failures_total",
			Help: "Decision cycles that failed (collaborator error or recovered panic)",
		}, []string{"symbol", "kind"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trader_cycle_duration_seconds",
			Help:    "Decision cycle latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_orders_total",
			Help: "Orders placed, by side and status",
		}, []string{"symbol", "side", "status"}),
		AgreementScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trader_agreement_score_pct",
			Help: "Latest aggregated indicator agreement per action",
		}, []string{"symbol", "action"}),
		UnrealizedPNL: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trader_unrealized_pnl_pct",
			Help: "Unrealized PNL of the open entry in percent",
		}, []string{"symbol"}),
		FeedCandles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_feed_candles_total",
			Help: "Candles received from the websocket feed",
		}, []string{"interval", "final"}),
		AdvisorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_advisor_requests_total",
			Help: "Advisory classifier requests, by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.CycleFailures,
		m.CycleDuration,
		m.OrdersTotal,
		m.AgreementScore,
		m.UnrealizedPNL,
		m.FeedCandles,
		m.AdvisorRequests,
	)
	return m
}

func (m *Metrics) ObserveCycle(symbol, action string, seconds float64) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(symbol, action).Inc()
	m.CycleDuration.Observe(seconds)
}

func (m *Metrics) CycleFailed(symbol, kind string) {
	if m == nil {
		return
	}
	m.CycleFailures.WithLabelValues(symbol, kind).Inc()
}

func (m *Metrics) Order(symbol, side, status string) {
	if m == nil {
		return
	}
	m.OrdersTotal.WithLabelValues(symbol, side, status).Inc()
}

func (m *Metrics) Scores(symbol string, scores map[string]float64, pnl float64) {
	if m == nil {
		return
	}
	for action, v := range scores {
		m.AgreementScore.WithLabelValues(symbol, action).Set(v)
	}
	m.UnrealizedPNL.WithLabelValues(symbol).Set(pnl)
}

func (m *Metrics) FeedCandle(interval string, final bool) {
	if m == nil {
		return
	}
	f := "false"
	if final {
		f = "true"
	}
	m.FeedCandles.WithLabelValues(interval, f).Inc()
}

func (m *Metrics) Advisor(result string) {
	if m == nil {
		return
	}
	m.AdvisorRequests.WithLabelValues(result).Inc()
}
