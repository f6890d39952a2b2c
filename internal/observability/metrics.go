package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the HTTP server, ledger and worker.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ledgerEvents    *prometheus.CounterVec
	cacheBumpErrors prometheus.Counter
	jobsTotal       *prometheus.CounterVec
}

// NewMetrics initialises the registry with the application metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopledger_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopledger_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	ledger := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopledger_ledger_events_total",
		Help: "Committed ledger mutations by source.",
	}, []string{"source"})
	bumpErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shopledger_report_cache_bump_errors_total",
		Help: "Report cache invalidations that failed after a commit.",
	})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopledger_jobs_total",
		Help: "Background task executions by task type and outcome.",
	}, []string{"task", "status"})
	registry.MustRegister(requests, duration, ledger, bumpErrors, jobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		ledgerEvents:    ledger,
		cacheBumpErrors: bumpErrors,
		jobsTotal:       jobs,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// LedgerEvent counts one committed mutation.
func (m *Metrics) LedgerEvent(source string) {
	if m == nil {
		return
	}
	m.ledgerEvents.WithLabelValues(source).Inc()
}

// CacheBumpFailed counts a failed report cache invalidation.
func (m *Metrics) CacheBumpFailed() {
	if m == nil {
		return
	}
	m.cacheBumpErrors.Inc()
}

// JobFinished counts a background task run.
func (m *Metrics) JobFinished(task string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.jobsTotal.WithLabelValues(task, status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
