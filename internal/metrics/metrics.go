// Package metrics exposes run statistics as Prometheus collectors on a
// private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xsbench"

// Metrics groups the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	lookups      prometheus.Counter
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	gridBuild    prometheus.Histogram
	lastChecksum prometheus.Gauge
	progress     prometheus.Gauge
}

// New registers every collector, plus the Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Cross-section lookups completed.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished lookup runs by mode.",
		}, []string{"mode"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the lookup phase of each run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		gridBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grid_build_seconds",
			Help:      "Wall time spent generating or loading grids.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		lastChecksum: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_checksum",
			Help:      "Checksum of the most recent run.",
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_ratio",
			Help:      "Fraction of the current run's lookups completed.",
		}),
	}
	m.registry.MustRegister(
		m.lookups, m.runs, m.runDuration, m.gridBuild, m.lastChecksum, m.progress,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLookups counts n finished lookups.
func (m *Metrics) ObserveLookups(n int) { m.lookups.Add(float64(n)) }

// ObserveGridBuild records how long the setup phase took.
func (m *Metrics) ObserveGridBuild(d time.Duration) { m.gridBuild.Observe(d.Seconds()) }

// SetProgress publishes the completed fraction of the running lookups.
func (m *Metrics) SetProgress(ratio float64) { m.progress.Set(ratio) }

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(mode string, elapsed time.Duration, checksum uint64) {
	m.runs.WithLabelValues(mode).Inc()
	m.runDuration.Observe(elapsed.Seconds())
	m.lastChecksum.Set(float64(checksum))
	m.progress.Set(1)
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
