package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RouteDecided("GEO")
	m.RouteDecided("GEO")
	m.RouteDecided("DEFAULT")
	m.ProspectsReturned(3)
	m.ProspectsReturned(0)
	m.ExtractionFailed()
	m.CompletionFailed("prospecting")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.routeDecisions.WithLabelValues("GEO")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.routeDecisions.WithLabelValues("DEFAULT")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.prospectsReturned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.extractionFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completionErrors.WithLabelValues("prospecting")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.completionErrors.WithLabelValues("assistant")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RouteDecided("FAST")
	m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `leadqual_route_decisions_total{route="FAST"} 1`))
	assert.True(t, strings.Contains(body, `leadqual_http_request_duration_seconds_count{method="GET",path="/health",status="200"} 1`))
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
