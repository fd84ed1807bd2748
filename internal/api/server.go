package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garipamoja/askari/internal/domain"
	"github.com/garipamoja/askari/internal/fraud"
	"github.com/garipamoja/askari/internal/moderation"
	"github.com/garipamoja/askari/internal/pricing"
	"github.com/garipamoja/askari/internal/rules"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(
	cfg domain.ServerConfig,
	repo domain.Repository,
	cache domain.Cache,
	bus domain.EventBus,
	engine *rules.Engine,
	fraudSvc *fraud.Service,
	pricingSvc *pricing.Service,
	moderationSvc *moderation.Service,
	version string,
) *Server {
	handler := NewHandler(repo, cache, bus, engine, fraudSvc, pricingSvc, moderationSvc, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health and observability endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)
	router.Handle("/metrics", promhttp.Handler())

	// Analysis endpoints
	router.Post("/fraud/detect", handler.DetectFraud)
	router.Post("/pricing/suggest", handler.SuggestPrice)
	router.Post("/moderation/check", handler.CheckContent)
	router.Post("/batch/process", handler.ProcessBatch)

	// Model lifecycle
	router.Post("/models/update", handler.UpdateModels)
	router.Get("/models/status", handler.ModelStatus)

	// Analysis retrieval and analytics
	router.Get("/analyses/{id}", handler.GetAnalysis)
	router.Get("/analytics/summary", handler.AnalyticsSummary)

	// Rule table management
	router.Get("/rules", handler.ListRuleTables)
	router.Get("/rules/{domain}", handler.GetRuleTable)
	router.Put("/rules/{domain}", handler.PutRuleTable)
	router.Post("/rules/reload", handler.ReloadRuleTables)

	// Reference data upserts
	router.Put("/signals/{userID}", handler.PutBehaviorSignals)
	router.Put("/market/{location}", handler.PutMarketSnapshot)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
