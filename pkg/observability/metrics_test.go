package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegisters(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.CleanupTasksTotal.WithLabelValues("Customers", "ok").Inc()
	metrics.DocumentsDeleted.WithLabelValues("organizations").Add(12)
	metrics.RolesRevokedTotal.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CleanupTasksTotal.WithLabelValues("Customers", "ok")))
	assert.Equal(t, float64(12), testutil.ToFloat64(metrics.DocumentsDeleted.WithLabelValues("organizations")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RolesRevokedTotal))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/customers/x", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("DELETE", "/customers/x", "204")))
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.QueuePendingEntries.Set(3)

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "tenancy_queue_pending_entries 3"))
}
