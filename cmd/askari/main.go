// Askari - rule-based risk, pricing and moderation scoring for the
// GariPamoja car-sharing marketplace.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garipamoja/askari/internal/api"
	"github.com/garipamoja/askari/internal/bus"
	"github.com/garipamoja/askari/internal/cache"
	"github.com/garipamoja/askari/internal/decision"
	"github.com/garipamoja/askari/internal/domain"
	"github.com/garipamoja/askari/internal/features"
	"github.com/garipamoja/askari/internal/fraud"
	"github.com/garipamoja/askari/internal/metrics"
	"github.com/garipamoja/askari/internal/moderation"
	"github.com/garipamoja/askari/internal/model"
	"github.com/garipamoja/askari/internal/pricing"
	"github.com/garipamoja/askari/internal/repository"
	"github.com/garipamoja/askari/internal/rules"
	"github.com/garipamoja/askari/internal/signals"
	"github.com/garipamoja/askari/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Load configuration before logging so the handler honors it
	tier := domain.TierCommunity
	if os.Getenv("ASKARI_TIER") == string(domain.TierPro) {
		tier = domain.TierPro
	}

	cfg, err := domain.LoadConfig(os.Getenv("ASKARI_CONFIG"), tier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	slog.Info("starting askari",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize rule engine: built-in tables overridden by anything the
	// operator has stored via PUT /rules/{domain}
	engine, err := rules.NewEngine()
	if err != nil {
		slog.Error("failed to initialize rule engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	if err := loadRuleTables(ctx, repo, engine); err != nil {
		slog.Error("failed to load rule tables", "error", err)
		os.Exit(1)
	}
	slog.Info("rule engine initialized", "tables", engine.TableCount())

	// Metrics registry
	m := metrics.New()

	// Feature sources backed by the repository
	store := signals.NewStore(repo)

	// Domain services
	fraudSvc := fraud.NewService(
		features.NewFraudExtractor(store, logger),
		engine,
		decision.NewFraudPolicy(cfg.Scoring.RiskThresholds),
		model.NewFraudModel(),
		repo, cacheImpl, busImpl, m, logger,
	)
	pricingSvc := pricing.NewService(
		features.NewPricingExtractor(store, cfg.Scoring, logger),
		engine,
		model.NewPricingModel(),
		repo, cacheImpl, busImpl, m, logger,
	)
	moderationSvc := moderation.NewService(
		features.NewModerationExtractor(store, logger),
		engine,
		repo, cacheImpl, busImpl, m, logger,
	)
	slog.Info("scoring services initialized")

	// Async batch worker consumes analysis.requested events
	batchWorker := worker.NewWorker(busImpl, fraudSvc, pricingSvc, moderationSvc, logger)
	if err := batchWorker.Start(); err != nil {
		slog.Error("failed to start batch worker", "error", err)
		os.Exit(1)
	}
	slog.Info("batch worker started")

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, engine,
		fraudSvc, pricingSvc, moderationSvc, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("askari is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	batchWorker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("askari shutdown complete")
}

func newLogger(cfg domain.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if os.Getenv("ASKARI_DEBUG") == "true" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// loadRuleTables seeds the engine with the built-in tables, then overrides
// them with any tables the operator stored in the repository.
func loadRuleTables(ctx context.Context, repo domain.Repository, engine *rules.Engine) error {
	stored, err := repo.ListRuleTables(ctx)
	if err != nil {
		slog.Warn("failed to list stored rule tables, using built-ins", "error", err)
		stored = nil
	}
	if len(stored) > 0 {
		slog.Info("applying stored rule table overrides", "count", len(stored))
	}
	return engine.LoadTables(rules.MergeTables(rules.BuiltinTables(), stored))
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ASKARI - marketplace scoring engine")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /fraud/detect       - Score a transaction for fraud risk")
	fmt.Println("    POST /pricing/suggest    - Suggest a rental price")
	fmt.Println("    POST /moderation/check   - Moderate listing/message content")
	fmt.Println("    POST /batch/process      - Queue a batch of analyses")
	fmt.Println("    POST /models/update      - Retrain a scoring model")
	fmt.Println("    GET  /models/status      - Model lifecycle state")
	fmt.Println("    GET  /analyses/{id}      - Fetch a stored analysis")
	fmt.Println("    GET  /analytics/summary  - Per-domain analysis counts")
	fmt.Println("    GET  /rules              - List rule tables")
	fmt.Println("    PUT  /rules/{domain}     - Replace a rule table")
	fmt.Println("    POST /rules/reload       - Hot-reload rule tables")
	fmt.Println("    GET  /health             - Health check")
	fmt.Println()
}
