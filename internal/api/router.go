package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/llmservice/internal/api/handlers"
	"github.com/nikhilbhutani/llmservice/internal/api/middleware"
	"github.com/nikhilbhutani/llmservice/internal/config"
	"github.com/nikhilbhutani/llmservice/internal/inference"
	"github.com/nikhilbhutani/llmservice/internal/metrics"
)

type Router struct {
	mux     *chi.Mux
	cfg     config.ServerConfig
	svc     *inference.Service
	history handlers.HistoryLister
	metrics *metrics.Registry
	limiter *middleware.RateLimiter
}

func NewRouter(cfg config.ServerConfig, svc *inference.Service, hist handlers.HistoryLister, reg *metrics.Registry) *Router {
	return &Router{
		mux:     chi.NewRouter(),
		cfg:     cfg,
		svc:     svc,
		history: hist,
		metrics: reg,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics(rt.metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.AllowedOrigins))

	r.Get("/health", handlers.NewHealthHandler(rt.svc).Health)
	r.Handle("/metrics", rt.metrics.Handler())

	r.Group(func(r chi.Router) {
		if rt.cfg.RateLimitRPS > 0 {
			rt.limiter = middleware.NewRateLimiter(rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
			r.Use(rt.limiter.Limit)
		}

		r.Post("/generate", handlers.NewGenerateHandler(rt.svc).Generate)
		r.Get("/audio/{filename}", handlers.NewAudioHandler(rt.svc).Get)
		r.Get("/history/{user_id}", handlers.NewHistoryHandler(rt.history).Get)
	})

	return r
}

// Close stops background work started by Setup.
func (rt *Router) Close() {
	if rt.limiter != nil {
		rt.limiter.Close()
	}
}
