package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "llmservice"

// Registry owns the service's collectors. A nil *Registry is valid and
// records nothing.
type Registry struct {
	reg *prometheus.Registry

	generateRequests  *prometheus.CounterVec
	generateDuration  prometheus.Histogram
	synthesisFailures prometheus.Counter
	tokens            *prometheus.CounterVec
	costUSD           *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		generateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generate_requests_total",
			Help:      "Generate calls by outcome.",
		}, []string{"outcome"}),
		generateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Wall-clock duration of generate calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		synthesisFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_failures_total",
			Help:      "Speech synthesis attempts that failed and were dropped from the response.",
		}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Completion tokens by provider and direction (input or output).",
		}, []string{"provider", "direction"}),
		costUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_cost_usd_total",
			Help:      "Estimated completion spend in US dollars.",
		}, []string{"provider"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests processed.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.generateRequests,
		r.generateDuration,
		r.synthesisFailures,
		r.tokens,
		r.costUSD,
		r.httpRequests,
		r.httpLatency,
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveGenerate records one generate call. outcome is "ok" or an error kind.
func (r *Registry) ObserveGenerate(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.generateRequests.WithLabelValues(outcome).Inc()
	r.generateDuration.Observe(d.Seconds())
}

// ObserveCompletion records token usage and estimated cost of one completion.
func (r *Registry) ObserveCompletion(provider string, inputTokens, outputTokens int, costUSD float64) {
	if r == nil {
		return
	}
	if provider == "" {
		provider = "unknown"
	}
	r.tokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	r.tokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	if costUSD > 0 {
		r.costUSD.WithLabelValues(provider).Add(costUSD)
	}
}

func (r *Registry) SynthesisFailed() {
	if r == nil {
		return
	}
	r.synthesisFailures.Inc()
}

func (r *Registry) ObserveHTTP(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	s := strconv.Itoa(status)
	r.httpRequests.WithLabelValues(method, route, s).Inc()
	r.httpLatency.WithLabelValues(method, route, s).Observe(d.Seconds())
}
