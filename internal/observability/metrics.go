package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// reconciliation and forecasting pipeline.
type Metrics struct {
	FeedRowsParsed   *prometheus.CounterVec // labels: feed
	PointsNormalized *prometheus.CounterVec // labels: feed
	ParseErrors      *prometheus.CounterVec // labels: feed, kind={dropped_column,bad_cell}

	StageDuration   *prometheus.HistogramVec // labels: stage
	PipelineRunning prometheus.Gauge

	ModelsEvaluated prometheus.Counter
	ModelsRejected  prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedRowsParsed,
		m.PointsNormalized,
		m.ParseErrors,
		m.StageDuration,
		m.PipelineRunning,
		m.ModelsEvaluated,
		m.ModelsRejected,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedRowsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "feed_rows_parsed_total",
			Help:      "Rows read from each source feed.",
		}, []string{"feed"}),
		PointsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "points_normalized_total",
			Help:      "Long-format points produced from each feed.",
		}, []string{"feed"}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "parse_errors_total",
			Help:      "Locally-recovered parse failures by feed and kind.",
		}, []string{"feed", "kind"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "covid_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_etl",
			Name:      "pipeline_running",
			Help:      "1 while a batch run is in progress.",
		}),
		ModelsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "models_evaluated_total",
			Help:      "Candidate ARIMA fits attempted during order search.",
		}),
		ModelsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "models_rejected_total",
			Help:      "Candidate fits discarded for divergence or inadmissible roots.",
		}),
	}
}
