package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"go-migration-audit/internal/handler"
	"go-migration-audit/internal/middleware"
	"go-migration-audit/internal/service"
)

type Options struct {
	CORSOrigins    []string
	RateLimitRPM   int
	RequestTimeout time.Duration
}

type Handlers struct {
	Runs   *handler.RunsHandler
	Health *handler.HealthHandler
}

func New(opts Options, logger *slog.Logger, authMiddleware *middleware.AuthMiddleware, handlers Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(opts.RateLimitRPM, "/health")

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", handlers.Health.Health)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Deadline(opts.RequestTimeout))
		api.Use(authMiddleware.RequireAuth)
		api.Use(authMiddleware.RequireRoles(service.RoleAuditor, service.RoleAdmin))

		api.Get("/runs", handlers.Runs.List)
		api.Get("/runs/{run_id}", handlers.Runs.Get)
		api.Get("/runs/{run_id}/findings", handlers.Runs.Findings)
		api.Get("/runs/{run_id}/renames", handlers.Runs.Renames)
	})

	return r
}
