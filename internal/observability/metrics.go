package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fishing_map"

// Metrics holds the Prometheus counters, histograms, and gauges for the loader.
type Metrics struct {
	// Retrieval metrics.
	FetchAttempts        *prometheus.CounterVec   // labels: strategy, outcome={success,http_error,timeout,empty,parse_error,network_error}
	FetchAttemptDuration *prometheus.HistogramVec // labels: strategy
	RetrievalFailures    prometheus.Counter

	// Load cycle metrics.
	LoadCycles    *prometheus.CounterVec // labels: source={csv,sheets,demo,none}
	Fallbacks     *prometheus.CounterVec // labels: reason={unconfigured,retrieval,empty}
	LoadDuration  prometheus.Histogram
	RowsFetched   prometheus.Counter
	RowsDropped   prometheus.Counter
	RecordsLoaded prometheus.Gauge
	RecordsCaught prometheus.Gauge
	LoaderRunning prometheus.Gauge
	PublishErrors *prometheus.CounterVec // labels: sink

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all loader metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Retrieval attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		FetchAttemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_attempt_duration_seconds",
			Help:      "Duration of a single retrieval attempt.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"strategy"}),
		RetrievalFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_failures_total",
			Help:      "Load cycles in which every retrieval strategy failed.",
		}),
		LoadCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_cycles_total",
			Help:      "Completed load cycles by the source of the displayed data.",
		}, []string{"source"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Load cycles that fell back, by reason.",
		}, []string{"reason"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete load cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
		}),
		RowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_fetched_total",
			Help:      "Raw rows received from the source.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Raw rows dropped for invalid coordinates.",
		}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Records in the current display set.",
		}),
		RecordsCaught: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_caught",
			Help:      "Records in the current display set where fish were caught.",
		}),
		LoaderRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loader_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed dataset publications by sink.",
		}, []string{"sink"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when reverse geocoding enrichment is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FetchAttempts,
		m.FetchAttemptDuration,
		m.RetrievalFailures,
		m.LoadCycles,
		m.Fallbacks,
		m.LoadDuration,
		m.RowsFetched,
		m.RowsDropped,
		m.RecordsLoaded,
		m.RecordsCaught,
		m.LoaderRunning,
		m.PublishErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
