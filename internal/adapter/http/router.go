package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/networth/internal/adapter/http/handler"
	"github.com/iho/networth/internal/adapter/http/middleware"
	"github.com/iho/networth/internal/infrastructure/auth"
	"github.com/iho/networth/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler   *handler.AuthHandler
	BackupHandler *handler.BackupHandler
	HealthHandler *handler.HealthHandler
	JWTManager    *auth.JWTManager
	Denylist      middleware.RevocationChecker
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Public auth endpoints
	r.Post("/register", cfg.AuthHandler.Register)
	r.Post("/login", cfg.AuthHandler.Login)

	// Authenticated endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTManager, cfg.Denylist))

		r.Post("/logout", cfg.AuthHandler.Logout)
		r.Route("/api", func(r chi.Router) {
			r.Get("/backup", cfg.BackupHandler.Get)
			r.Put("/backup", cfg.BackupHandler.Put)
		})
	})

	return r
}
