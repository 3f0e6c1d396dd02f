package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Cleanup pipeline metrics
	CleanupTasksTotal    *prometheus.CounterVec
	CleanupTaskDuration  *prometheus.HistogramVec
	DocumentsDeleted     *prometheus.CounterVec
	MembershipsRepaired  prometheus.Counter
	RolesRevokedTotal    prometheus.Counter
	QueuePendingEntries  prometheus.Gauge
	QueueReclaimedTotal  prometheus.Counter

	// Cache metrics
	CacheReloadsTotal *prometheus.CounterVec

	// Event metrics
	EventsPublishedTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenancy_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		CleanupTasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_cleanup_tasks_total",
				Help: "Total number of cleanup tasks processed",
			},
			[]string{"type", "status"},
		),
		CleanupTaskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenancy_cleanup_task_duration_seconds",
				Help:    "Cleanup task duration in seconds",
				Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"type"},
		),
		DocumentsDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_documents_deleted_total",
				Help: "Total number of documents removed by cascade sweeps",
			},
			[]string{"collection"},
		),
		MembershipsRepaired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tenancy_memberships_repaired_total",
				Help: "Total number of organization unit member entries pulled",
			},
		),
		RolesRevokedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tenancy_roles_revoked_total",
				Help: "Total number of access roles revoked",
			},
		),
		QueuePendingEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tenancy_queue_pending_entries",
				Help: "Cleanup queue entries delivered but not yet acknowledged",
			},
		),
		QueueReclaimedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tenancy_queue_reclaimed_total",
				Help: "Total number of stale queue entries reclaimed",
			},
		),

		CacheReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_cache_reloads_total",
				Help: "Total number of cache reloads",
			},
			[]string{"cache"},
		),

		EventsPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenancy_events_published_total",
				Help: "Total number of deletion events published",
			},
			[]string{"namespace"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CleanupTasksTotal,
		m.CleanupTaskDuration,
		m.DocumentsDeleted,
		m.MembershipsRepaired,
		m.RolesRevokedTotal,
		m.QueuePendingEntries,
		m.QueueReclaimedTotal,
		m.CacheReloadsTotal,
		m.EventsPublishedTotal,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
