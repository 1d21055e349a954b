// Package metrics exposes Prometheus collectors for recompute runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"options-income/internal/models"
	"options-income/internal/resilience"
)

// Recorder holds the run, fetch and candidate collectors on its own registry.
// A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	fetchesTotal   *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	candidates     *prometheus.CounterVec
	packetsRanked  prometheus.Gauge
	regimeScore    prometheus.Gauge
	lastRunSuccess prometheus.Gauge
	breakerState   *prometheus.GaugeVec
	breakerFails   *prometheus.GaugeVec
}

// New creates a recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optincome_runs_total",
				Help: "Total number of recompute runs by final status",
			},
			[]string{"status"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "optincome_run_duration_seconds",
				Help:    "Duration of recompute runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		fetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optincome_fetches_total",
				Help: "Total number of market-data fetches by data type and outcome",
			},
			[]string{"data_type", "outcome"},
		),
		fetchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optincome_fetch_duration_seconds",
				Help:    "Duration of market-data fetches in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"data_type"},
		),
		candidates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optincome_candidates_total",
				Help: "Total number of strategy candidates generated",
			},
			[]string{"strategy"},
		),
		packetsRanked: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "optincome_packets_ranked",
				Help: "Number of packets kept by the last completed run",
			},
		),
		regimeScore: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "optincome_regime_trend_score",
				Help: "Benchmark trend score of the last classified regime",
			},
		),
		lastRunSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "optincome_last_run_success_timestamp_seconds",
				Help: "Unix time of the last completed run",
			},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "optincome_breaker_state",
				Help: "Circuit breaker state per data type (0 closed, 1 half-open, 2 open)",
			},
			[]string{"breaker"},
		),
		breakerFails: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "optincome_breaker_failures",
				Help: "Failures counted by each circuit breaker in its current window",
			},
			[]string{"breaker"},
		),
	}
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch records one market-data fetch. Its signature matches
// marketdata.FetchObserver.
func (r *Recorder) ObserveFetch(dataType string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.fetchesTotal.WithLabelValues(dataType, outcome).Inc()
	r.fetchLatency.WithLabelValues(dataType).Observe(duration.Seconds())
}

// RecordCandidate counts a generated candidate.
func (r *Recorder) RecordCandidate(strategy models.StrategyType) {
	if r == nil {
		return
	}
	r.candidates.WithLabelValues(string(strategy)).Inc()
}

// RecordRegime records the classified regime.
func (r *Recorder) RecordRegime(regime *models.MarketRegime) {
	if r == nil || regime == nil {
		return
	}
	r.regimeScore.Set(regime.TrendScore)
}

// RecordRun records a finished run.
func (r *Recorder) RecordRun(status models.RunStatus, packets int, duration time.Duration, finishedAt time.Time) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(string(status)).Inc()
	r.runDuration.Observe(duration.Seconds())
	if status == models.RunCompleted {
		r.packetsRanked.Set(float64(packets))
		r.lastRunSuccess.Set(float64(finishedAt.Unix()))
	}
}

// RecordBreakers records a snapshot of circuit breaker states.
func (r *Recorder) RecordBreakers(stats []resilience.CircuitBreakerStats) {
	if r == nil {
		return
	}
	for _, st := range stats {
		var state float64
		switch st.State {
		case resilience.CircuitHalfOpen:
			state = 1
		case resilience.CircuitOpen:
			state = 2
		}
		r.breakerState.WithLabelValues(st.Name).Set(state)
		r.breakerFails.WithLabelValues(st.Name).Set(float64(st.TotalFailures))
	}
}

// WriteTextfile writes all collected metrics in the node-exporter textfile
// format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
