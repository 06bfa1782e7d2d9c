// Package metrics exposes Prometheus collectors for recomputation, loads
// and the HTTP API. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	computeDuration *prometheus.HistogramVec
	computeOutputs  *prometheus.HistogramVec
	loadsTotal      *prometheus.CounterVec
	staleLoads      prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	datasetRows     prometheus.Gauge
}

// New builds collectors on a private registry, together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		computeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "muhurta",
			Name:      "compute_duration_seconds",
			Help:      "Duration of engine recomputation by stage.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"stage"}),
		computeOutputs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "muhurta",
			Name:      "compute_output_windows",
			Help:      "Number of windows or slots produced by each stage.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"stage"}),
		loadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "muhurta",
			Name:      "loads_total",
			Help:      "Dataset and rules loads by result.",
		}, []string{"result"}),
		staleLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "muhurta",
			Name:      "stale_loads_total",
			Help:      "Loads discarded because a newer load had started.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "muhurta",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "muhurta",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "muhurta",
			Name:      "dataset_rows",
			Help:      "Rows across all bands of the loaded dataset.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.computeDuration,
		m.computeOutputs,
		m.loadsTotal,
		m.staleLoads,
		m.httpRequests,
		m.httpDuration,
		m.datasetRows,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCompute records one run of stage ("compose", "resolve",
// "good_only", ...) producing n outputs.
func (m *Metrics) ObserveCompute(stage string, d time.Duration, n int) {
	if m == nil {
		return
	}
	m.computeDuration.WithLabelValues(stage).Observe(d.Seconds())
	m.computeOutputs.WithLabelValues(stage).Observe(float64(n))
}

// Load records a load attempt. result is "ok", "error" or "stale".
func (m *Metrics) Load(result string) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(result).Inc()
	if result == "stale" {
		m.staleLoads.Inc()
	}
}

func (m *Metrics) SetDatasetRows(n int) {
	if m == nil {
		return
	}
	m.datasetRows.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts and times requests to next under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		m.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
