package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T) []byte {
	t.Helper()
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	return mrr.Body.Bytes()
}

// TestMetricsMiddleware_EmitsRequestCounters verifies that wrapping a handler
// with MetricsMiddleware results in request metrics being exposed via the
// Prometheus /metrics handler.
func TestMetricsMiddleware_EmitsRequestCounters(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	MetricsMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", rr.Code)
	}
	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/test", http.MethodGet, "418"))
	if got < 1 {
		t.Fatalf("expected request counter for /test 418, got %v", got)
	}
	if !bytes.Contains(scrape(t), []byte("edgellm_http_requests_total")) {
		t.Fatalf("expected edgellm_http_requests_total in metrics")
	}
}

// TestMetricsMiddleware_UsesRoutePattern ensures the metrics middleware labels
// by the chi route pattern instead of the raw URL path.
func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Post("/models/{id}/load", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/models/abc.gguf/load", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/models/{id}/load", http.MethodPost, "202"))
	if got < 1 {
		t.Fatalf("expected counter labelled by route pattern, got %v", got)
	}
}

func TestIncrementBackpressure_IncrementsCounter(t *testing.T) {
	baseline := testutil.ToFloat64(backpressureTotal.WithLabelValues("queue"))
	IncrementBackpressure("queue")
	IncrementBackpressure("queue")
	if got := testutil.ToFloat64(backpressureTotal.WithLabelValues("queue")); got < baseline+2 {
		t.Fatalf("expected backpressure counter >= %v, got %v", baseline+2, got)
	}

	before := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified"))
	IncrementBackpressure("")
	if after := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified")); after < before+1 {
		t.Fatalf("expected unspecified reason to increment: before=%v after=%v", before, after)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("edgellm_http_inflight_requests")) {
		t.Fatalf("unexpected /metrics response: %d", w.Code)
	}
}
