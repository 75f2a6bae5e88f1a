package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadbridge/leadbridge/internal/catalog"
)

var _ catalog.SyncRecorder = (*CatalogSyncMetrics)(nil)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobMetrics(t *testing.T) {
	metrics := NewMetrics()
	_ = metrics.Jobs().Track("catalog:sync").End(errors.New("boom"))

	body := scrape(t, metrics)
	assert.Contains(t, body, `leadbridge_jobs_total{job="catalog:sync",status="failure"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `leadbridge_http_requests_total{code="418",route="/test"} 1`)
	assert.True(t, strings.Contains(body, `leadbridge_http_request_duration_seconds_bucket{route="/test"`))
}

func TestCatalogSyncMetrics(t *testing.T) {
	metrics := NewMetrics()
	rec := metrics.CatalogSync()

	rec.ObservePage("active")
	rec.ObservePage("active")
	rec.ObserveItem(catalog.OutcomeSaved)
	rec.ObserveItem(catalog.OutcomeError)
	rec.ObserveRateLimit("list")

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.pages.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.items.WithLabelValues(catalog.OutcomeSaved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.items.WithLabelValues(catalog.OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.rateLimits.WithLabelValues("list")))

	var nilRec *CatalogSyncMetrics
	nilRec.ObservePage("draft")
}
