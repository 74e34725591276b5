package rest

import (
	"net/http"

	"clarityos-backend/interfaces/http/rest/handlers"
	"clarityos-backend/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	discovery *handlers.DiscoveryHandler
	statement *handlers.StatementHandler
	migration *handlers.MigrationHandler

	scopeConfig middleware.ScopeConfig
	registry    *prometheus.Registry
	readyCheck  func() error
	enableCORS  bool
	logger      *zap.Logger
}

// NewRouter creates a new router instance.
func NewRouter(
	discovery *handlers.DiscoveryHandler,
	statement *handlers.StatementHandler,
	migration *handlers.MigrationHandler,
	scopeConfig middleware.ScopeConfig,
	registry *prometheus.Registry,
	readyCheck func() error,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		discovery:   discovery,
		statement:   statement,
		migration:   migration,
		scopeConfig: scopeConfig,
		registry:    registry,
		readyCheck:  readyCheck,
		enableCORS:  enableCORS,
		logger:      logger,
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

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.clarityos.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Session-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Operational endpoints
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ResolveScope(rt.scopeConfig, rt.logger))

		r.Get("/cards", rt.statement.ListCards)

		r.Route("/cards/{cardSlug}", func(r chi.Router) {
			r.Post("/turns", rt.discovery.SubmitTurn)
			r.Get("/conversation", rt.discovery.GetConversation)
			r.Delete("/conversation", rt.discovery.ResetConversation)
		})

		r.Get("/statements/current", rt.statement.GetCurrentStatement)

		r.With(middleware.RequireUser()).Post("/migrate", rt.migration.Migrate)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if rt.readyCheck != nil {
		if err := rt.readyCheck(); err != nil {
			rt.logger.Warn("readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready"}`))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
