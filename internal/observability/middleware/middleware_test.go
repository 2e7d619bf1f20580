package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"plantar/internal/observability/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestWithRequestAndTrace(t *testing.T) {
	var gotReq, gotTrace string
	h := WithRequestAndTrace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = RequestIDFromContext(r.Context())
		gotTrace = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "r-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "r-1", gotReq)
	assert.NotEmpty(t, gotTrace)
	assert.Equal(t, "r-1", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, gotTrace, rec.Header().Get("X-Trace-ID"))

	assert.Empty(t, RequestIDFromContext(req.Context()))
}

func TestWithMetricsRecordsStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(WithMetrics)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counted := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "418")
	before := counterValue(t, counted)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, counterValue(t, counted))

	sr := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	sr.WriteHeader(http.StatusCreated)
	assert.Equal(t, http.StatusCreated, sr.status)
	assert.NotNil(t, sr.Unwrap())
}

func TestWithMetricsUnmatchedPathsShareOneLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(WithMetrics)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {})

	unmatched := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, UnmatchedRoute, "404")
	before := counterValue(t, unmatched)

	for _, p := range []string{"/wp-admin", "/.env", "/scan/123"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, before+3, counterValue(t, unmatched))
	assert.Equal(t, 0.0, counterValue(t, metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/wp-admin", "404")))
}
