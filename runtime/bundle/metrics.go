package bundle

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	extractionsAttempted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bundle_extractions_attempted_total",
		Help: "Number of bundle extraction attempts (Runner.Extract calls).",
	})

	extractionsSucceeded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bundle_extractions_succeeded_total",
		Help: "Number of bundle extraction attempts that returned Success.",
	})

	extractionsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_extractions_failed_total",
			Help: "Number of bundle extraction attempts that failed, by error kind.",
		},
		[]string{"kind"},
	)

	extractionsRaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bundle_extractions_raced_total",
		Help: "Number of extraction attempts that lost a first-run race to a concurrent peer.",
	})

	extractedBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bundle_extracted_bytes",
		Help:    "Total bytes copied to disk per successful staging pass (nothing is recorded on the probe fast path).",
		Buckets: prometheus.ExponentialBuckets(1<<10, 4, 12),
	})

	collectors = []prometheus.Collector{
		extractionsAttempted,
		extractionsSucceeded,
		extractionsFailed,
		extractionsRaced,
		extractedBytes,
	}

	metricsEnabled bool
	metricsOnce    sync.Once
)

// EnableMetrics registers this package's prometheus collectors with the
// default registry. It is a no-op after the first call, matching the
// sync.Once-guarded registration oasis-core uses for its own per-subsystem
// metrics blocks. Call it once at process startup before extracting any
// bundle if you want extraction metrics exported.
func EnableMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(collectors...)
		metricsEnabled = true
	})
}

func observeAttempt() {
	if metricsEnabled {
		extractionsAttempted.Inc()
	}
}

func observeSuccess() {
	if metricsEnabled {
		extractionsSucceeded.Inc()
	}
}

func observeFailure(kind Kind) {
	if metricsEnabled {
		extractionsFailed.With(prometheus.Labels{"kind": kind.String()}).Inc()
	}
}

func observeRace() {
	if metricsEnabled {
		extractionsRaced.Inc()
	}
}

func observeBytesExtracted(n int64) {
	if metricsEnabled {
		extractedBytes.Observe(float64(n))
	}
}
