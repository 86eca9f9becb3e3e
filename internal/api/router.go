// Package api serves the recommendation engine and the business catalog over HTTP.
package api

import (
	"context"
	"net/http"

	"bizmatch-workers/internal/common/logger"
	"bizmatch-workers/internal/common/observability"
	"bizmatch-workers/internal/recommendation"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Dependencies struct {
	Engine        *recommendation.Engine
	Cache         *recommendation.Cache
	Observability *observability.Observability
	Logger        logger.Logger
	// Checks run on /ready, keyed by dependency name.
	Checks map[string]ReadinessCheck
}

type Server struct {
	engine *recommendation.Engine
	cache  *recommendation.Cache
	obs    *observability.Observability
	logger logger.Logger
	checks map[string]ReadinessCheck
	config MiddlewareConfig
	// defaultLimit applies when a recommendation request sets no limit.
	defaultLimit int
}

func NewServer(deps Dependencies, config MiddlewareConfig, defaultLimit int) *Server {
	obs := deps.Observability
	if obs == nil {
		obs = observability.Noop()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMiddlewareConfig().MaxBodyBytes
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Server{
		engine:       deps.Engine,
		cache:        deps.Cache,
		obs:          obs,
		logger:       log.WithFields(map[string]interface{}{"component": "api"}),
		checks:       deps.Checks,
		config:       config,
		defaultLimit: defaultLimit,
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(s.config.AllowedOrigins))
	r.Use(instrument(s.logger))

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(s.config.RateLimit))

		r.Post("/recommendations", s.recommend)
		r.Get("/businesses", s.listBusinesses)
		r.Get("/businesses/{slug}", s.getBusiness)
		r.Get("/categories", s.listCategories)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", r.Method)
	})

	return r
}
