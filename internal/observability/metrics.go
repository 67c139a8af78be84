// Package observability wires Prometheus metrics for the HTTP layer and
// the invoicing pipeline.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	invoicesFinalized *prometheus.CounterVec
	documentsBuilt    *prometheus.CounterVec
	archivesWritten   prometheus.Counter
}

// NewMetrics initializes the registry and the base metric set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "facturio_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "facturio_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	finalized := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "facturio_invoices_finalized_total",
		Help: "Invoices finalized by document type.",
	}, []string{"type"})
	built := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "facturio_documents_built_total",
		Help: "Structured documents built by profile.",
	}, []string{"profile"})
	archives := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "facturio_archives_written_total",
		Help: "PDF/A-3 archives written by the worker.",
	})
	registry.MustRegister(requests, duration, finalized, built, archives)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		invoicesFinalized: finalized,
		documentsBuilt:    built,
		archivesWritten:   archives,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
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

// InvoiceFinalized counts one finalized invoice of the given type.
func (m *Metrics) InvoiceFinalized(invoiceType string) {
	if m == nil {
		return
	}
	m.invoicesFinalized.WithLabelValues(invoiceType).Inc()
}

// DocumentBuilt counts one structured document build for a profile.
func (m *Metrics) DocumentBuilt(profile string) {
	if m == nil {
		return
	}
	m.documentsBuilt.WithLabelValues(profile).Inc()
}

// ArchiveWritten counts one archive written by the worker.
func (m *Metrics) ArchiveWritten() {
	if m == nil {
		return
	}
	m.archivesWritten.Inc()
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
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
