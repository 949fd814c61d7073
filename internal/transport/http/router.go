// Package httptransport assembles the HTTP surface: middleware stack, health,
// metrics and the authenticated API routes.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"watchlist/internal/platform/metrics"
	authmw "watchlist/pkg/platform/middleware/auth"
	request "watchlist/pkg/platform/middleware/request"
)

// RouteRegistrar mounts a module's routes on the /api router.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Validator      authmw.JWTValidator
	AllowedOrigins []string
	HealthCheckers map[string]HealthChecker
	// MetricsHandler defaults to promhttp.Handler().
	MetricsHandler http.Handler
	API            []RouteRegistrar
}

// NewRouter wires all public endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.Logger(logger))
	r.Use(cfg.Metrics.Middleware)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", request.HeaderRequestID},
			ExposedHeaders:   []string{request.HeaderRequestID},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", HealthHandler(cfg.HealthCheckers))
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api", func(api chi.Router) {
		api.Use(authmw.RequireAuth(cfg.Validator, logger))
		for _, registrar := range cfg.API {
			registrar.Register(api)
		}
	})
	return r
}
