package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Rrens/kb-assistant/internal/api/handler"
	customMiddleware "github.com/Rrens/kb-assistant/internal/api/middleware"
	"github.com/Rrens/kb-assistant/internal/config"
	"github.com/Rrens/kb-assistant/internal/llm"
	"github.com/Rrens/kb-assistant/internal/security"
)

// Deps are the services behind the HTTP routes
type Deps struct {
	Chat    handler.ChatServicer
	Ingest  handler.Ingester
	Leaves  handler.LeaveReviewer
	Tokens  customMiddleware.TokenValidator
	Limiter customMiddleware.Limiter // nil disables rate limiting
	LLM     *llm.Router
	Ready   map[string]handler.ReadinessCheck
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	chatHandler := handler.NewChatHandler(deps.Chat)
	ingestHandler := handler.NewIngestHandler(deps.Ingest, cfg.Ingest.MaxUploadBytes)
	leaveHandler := handler.NewLeaveHandler(deps.Leaves)

	authMiddleware := customMiddleware.NewAuthMiddleware(deps.Tokens)
	reviewerOnly := customMiddleware.RequireRole(security.CanReviewLeave)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Ready))
		if deps.LLM != nil {
			r.Get("/llm-providers", handler.ListLLMProviders(deps.LLM))
		}

		// Conversational turns (public)
		r.Group(func(r chi.Router) {
			if deps.Limiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.Limiter, nil).Limit)
			}
			r.Post("/chat", chatHandler.Chat)
		})

		// Operator routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(reviewerOnly)

			r.Post("/ingest", ingestHandler.Ingest)
			r.Post("/reindex", ingestHandler.Reindex)

			r.Route("/leaves/{leaveID}", func(r chi.Router) {
				r.Get("/", leaveHandler.Get)
				r.Post("/approve", leaveHandler.Approve)
				r.Post("/reject", leaveHandler.Reject)
			})
		})
	})

	return r
}
