package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/storm-tools/storm/pkg/types"
)

// Metrics exposes run counters to Prometheus. The dispatch loop feeds it
// alongside the Run aggregate; a nil *Metrics receiver is a no-op so direct
// CLI runs can skip registration entirely.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	Latency       prometheus.Histogram
	TargetRate    prometheus.Gauge
	RunActive     prometheus.Gauge
}

// NewMetrics creates and registers the run metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storm_requests_total",
				Help: "Total requests by method and outcome",
			},
			[]string{"method", "outcome"},
		),

		Latency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "storm_request_latency_seconds",
				Help:    "Request round-trip latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),

		TargetRate: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storm_target_rate",
				Help: "Configured requests per second for the active run",
			},
		),

		RunActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storm_run_active",
				Help: "1 while a run is in progress, 0 otherwise",
			},
		),
	}
}

// Observe records one classified outcome.
func (m *Metrics) Observe(method string, out types.Outcome) {
	if m == nil {
		return
	}

	outcome := "success"
	if !out.Success {
		outcome = string(out.Class)
	}
	m.RequestsTotal.WithLabelValues(method, outcome).Inc()
	m.Latency.Observe(out.Latency.Seconds())
}

// RunStarted marks a run active with its configured rate.
func (m *Metrics) RunStarted(targetRate int) {
	if m == nil {
		return
	}
	m.TargetRate.Set(float64(targetRate))
	m.RunActive.Set(1)
}

// RunFinished marks the run inactive.
func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.RunActive.Set(0)
}
