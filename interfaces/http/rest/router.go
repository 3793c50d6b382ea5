package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"archflow-backend/application/ports"
	"archflow-backend/application/services"
	"archflow-backend/infrastructure/config"
	"archflow-backend/interfaces/http/rest/handlers"
	"archflow-backend/interfaces/http/rest/middleware"
	appErrors "archflow-backend/pkg/errors"
	"archflow-backend/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg      *config.Config
	graphs   *services.GraphService
	chat     *services.ChatService
	repo     ports.GraphStateRepository
	provider ports.Provider
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	graphs *services.GraphService,
	chat *services.ChatService,
	repo ports.GraphStateRepository,
	provider ports.Provider,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:      cfg,
		graphs:   graphs,
		chat:     chat,
		repo:     repo,
		provider: provider,
		metrics:  metrics,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health and readiness
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// Metrics exposition from the collector's private registry
	router.Handle("/metrics", promhttp.HandlerFor(rt.metrics.GetRegistry(), promhttp.HandlerOpts{}))

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		projectHandler := handlers.NewProjectHandler(rt.graphs, rt.logger)
		r.Post("/projects", projectHandler.CreateProject)

		r.Route("/projects/{projectID}", func(r chi.Router) {
			graphHandler := handlers.NewGraphHandler(rt.graphs, rt.cfg.Limits.MaxBodyBytes, rt.logger)
			r.Get("/graph", graphHandler.GetGraph)
			r.Put("/graph", graphHandler.ReplaceGraph)
			r.Post("/graph/delta", graphHandler.ApplyDelta)

			chatHandler := handlers.NewChatHandler(rt.chat, rt.graphs, rt.cfg.Limits.MaxBodyBytes, rt.logger)
			r.Post("/chat", chatHandler.HandleMessage)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	provider := "available"
	if rt.provider == nil || !rt.provider.IsAvailable() {
		provider = "unavailable"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","provider":"` + provider + `"}`))
}

// readinessCheck handles readiness check requests. A not-found from the
// probe read means the store answered, which is all readiness needs.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if _, err := rt.repo.Load(req.Context(), "readiness-probe"); err != nil && !appErrors.IsNotFound(err) {
		rt.logger.Warn("Readiness probe failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
