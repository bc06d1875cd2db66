// Pillard is the intelligence daemon for the four-pillar personal
// tracker: it discovers cross-pillar correlations, generates insights,
// recommendations, and predictions, and compiles daily briefings and
// weekly reviews over the recorded metric series.
//
// Configuration is loaded from ~/.config/pillard/config.yaml overridden
// by environment variables. See internal/config for details.
//
// Usage:
//
//	# Start the daemon with defaults
//	pillard
//
//	# Configure via environment
//	SERVER_HTTP_PORT=9180 STORE_PATH=/var/lib/pillard/pillard.db pillard
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pillard/internal/briefing"
	"github.com/fyrsmithlabs/pillard/internal/config"
	"github.com/fyrsmithlabs/pillard/internal/correlation"
	httpapi "github.com/fyrsmithlabs/pillard/internal/http"
	"github.com/fyrsmithlabs/pillard/internal/insight"
	"github.com/fyrsmithlabs/pillard/internal/intelligence"
	"github.com/fyrsmithlabs/pillard/internal/logging"
	"github.com/fyrsmithlabs/pillard/internal/predict"
	"github.com/fyrsmithlabs/pillard/internal/recommend"
	"github.com/fyrsmithlabs/pillard/internal/scheduler"
	"github.com/fyrsmithlabs/pillard/internal/services"
	"github.com/fyrsmithlabs/pillard/internal/store"
	"github.com/fyrsmithlabs/pillard/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  pillard           Start the pillard daemon\n")
			fmt.Fprintf(os.Stderr, "  pillard version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("pillard by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the pillard daemon and blocks until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("starting pillard",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Path),
	)

	provider, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Observability.EnableTelemetry,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Observability.OTLPEndpoint,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	db, err := store.Open(cfg.Store.Path, logger.Named("store"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	registry, err := buildServices(cfg, db, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	srv, err := httpapi.NewServer(registry, logger.Named("http"), &httpapi.Config{
		Host:          "localhost",
		Port:          cfg.Server.Port,
		GenerateRPS:   cfg.Server.GenerateRPS,
		GenerateBurst: cfg.Server.GenerateBurst,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		schedCfg := scheduler.DefaultConfig()
		schedCfg.DailySpec = cfg.Scheduler.DailySpec
		schedCfg.WeeklySpec = cfg.Scheduler.WeeklySpec
		sched, err = scheduler.New(schedCfg, db, registry.Intelligence(), registry.Briefings(), logger.Named("scheduler"))
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		sched.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Warn("scheduler shutdown failed", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}

// buildServices wires the store into the five analysis engines and the
// orchestrator.
func buildServices(cfg *config.Config, db *store.Store, logger *zap.Logger) (services.Registry, error) {
	corrCfg := correlation.DefaultConfig()
	corrCfg.WindowDays = cfg.Analysis.CorrelationWindowDays
	corrCfg.MinSampleSize = cfg.Analysis.MinSampleSize
	corrCfg.Concurrency = cfg.Analysis.Concurrency
	correlations, err := correlation.NewEngine(corrCfg, db, db, logger.Named("correlation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create correlation engine: %w", err)
	}

	insightCfg := insight.DefaultConfig()
	insightCfg.Concurrency = cfg.Analysis.Concurrency
	insights, err := insight.NewGenerator(insightCfg, db, db, correlations, logger.Named("insight"))
	if err != nil {
		return nil, fmt.Errorf("failed to create insight generator: %w", err)
	}

	recommendations, err := recommend.NewEngine(nil, db, insights, correlations, logger.Named("recommend"))
	if err != nil {
		return nil, fmt.Errorf("failed to create recommendation engine: %w", err)
	}

	predictCfg := predict.DefaultConfig()
	predictCfg.Goals = cfg.Analysis.Goals
	predictions, err := predict.NewService(predictCfg, db, db, logger.Named("predict"))
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction service: %w", err)
	}

	briefings, err := briefing.NewCompiler(nil, db, insights, recommendations, db, logger.Named("briefing"))
	if err != nil {
		return nil, fmt.Errorf("failed to create briefing compiler: %w", err)
	}

	orchestrator, err := intelligence.NewOrchestrator(correlations, insights, recommendations, predictions, briefings, logger.Named("intelligence"))
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	return services.NewRegistry(services.Options{
		Correlations:    correlations,
		Insights:        insights,
		Recommendations: recommendations,
		Predictions:     predictions,
		Briefings:       briefings,
		Intelligence:    orchestrator,
		Store:           db,
	}), nil
}
