package server

import (
	"net/http"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/trilingua/trilingua/internal/errors"
	"github.com/trilingua/trilingua/internal/observability"
	"github.com/trilingua/trilingua/internal/server/handlers"
	servermw "github.com/trilingua/trilingua/internal/server/middleware"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes(opts Options) {
	health := opts.Health
	if health == nil {
		health = handlers.NewHealthManager(handlers.AppVersion)
	}
	s.router.Get("/health", health.HealthHandler)
	s.router.Get("/health/live", health.LivenessHandler)
	s.router.Get("/health/ready", health.ReadinessHandler)
	s.router.Get("/health/startup", health.StartupHandler)

	s.router.Get("/version", handlers.VersionHandler)

	// Metrics endpoint (in server package to access HandleError)
	s.router.Get("/metrics", MetricsHandler)

	if opts.Dictionary != nil {
		s.router.Route("/api", func(r chi.Router) {
			r.Use(servermw.SharedSecret(opts.SharedSecret, denyUnauthorized))
			r.Get("/models", opts.Dictionary.Models)
			r.Post("/lookup", opts.Dictionary.Lookup)
			r.Post("/autocomplete", opts.Dictionary.Autocomplete)
			r.Post("/generate-sentence", opts.Dictionary.Sentence)
		})
	}

	s.registerAdminEndpoint(opts.AdminToken)
}

func denyUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	HandleError(w, r, apperrors.WrapUnauthorized(r.Context(), nil, message))
}

// registerAdminEndpoint exposes signal delivery over HTTP when an admin token is set.
func (s *Server) registerAdminEndpoint(adminToken string) {
	logger := observability.ServerLogger
	if adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no server.admin_token set)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: adminToken,
		RateLimit: 10,  // 10 requests per minute
		RateBurst: 5,   // burst size
		Manager:   nil, // use default global manager
	})
	s.router.Post("/admin/signal", http.HandlerFunc(handler.ServeHTTP))

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", "/admin/signal"),
			zap.String("rate_limit", "10/min, burst 5"))
	}
}
