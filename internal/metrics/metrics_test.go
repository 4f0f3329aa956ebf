package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	r := New()
	r.ObserveGenerate("ok", time.Second)
	r.ObserveGenerate("ok", time.Second)
	r.ObserveGenerate("validation", time.Millisecond)
	r.SynthesisFailed()
	r.ObserveHTTP(http.MethodPost, "/generate", 200, time.Second)

	require.Equal(t, 2.0, testutil.ToFloat64(r.generateRequests.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.generateRequests.WithLabelValues("validation")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.synthesisFailures))
	require.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("POST", "/generate", "200")))
}

func TestObserveCompletion(t *testing.T) {
	r := New()
	r.ObserveCompletion("ollama", 3, 10, 0)
	r.ObserveCompletion("anthropic", 4, 6, 0.002)
	r.ObserveCompletion("", 1, 1, 0)

	require.Equal(t, 3.0, testutil.ToFloat64(r.tokens.WithLabelValues("ollama", "input")))
	require.Equal(t, 10.0, testutil.ToFloat64(r.tokens.WithLabelValues("ollama", "output")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.tokens.WithLabelValues("unknown", "input")))
	require.InDelta(t, 0.002, testutil.ToFloat64(r.costUSD.WithLabelValues("anthropic")), 1e-12)
	require.Equal(t, 1, testutil.CollectAndCount(r.costUSD))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.SynthesisFailed()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "llmservice_synthesis_failures_total 1")
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	r.ObserveGenerate("ok", time.Second)
	r.SynthesisFailed()
	r.ObserveCompletion("ollama", 1, 1, 0.1)
	r.ObserveHTTP("GET", "/health", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
