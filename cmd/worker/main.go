package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tsanders-rh/dockctl/internal/bulk"
	"github.com/tsanders-rh/dockctl/internal/config"
	"github.com/tsanders-rh/dockctl/internal/cost"
	"github.com/tsanders-rh/dockctl/internal/engine"
	"github.com/tsanders-rh/dockctl/internal/export"
	"github.com/tsanders-rh/dockctl/internal/janitor"
	"github.com/tsanders-rh/dockctl/internal/logging"
	"github.com/tsanders-rh/dockctl/internal/metrics"
	"github.com/tsanders-rh/dockctl/internal/store"
	"github.com/tsanders-rh/dockctl/internal/usage"
	"github.com/tsanders-rh/dockctl/internal/worker"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	configPath := pflag.StringP("config", "c", "", fmt.Sprintf("path to the YAML config file (default %s if present)", config.DefaultPath))
	once := pflag.Bool("once", false, "run a single sampling and cleanup pass and exit")
	showVersion := pflag.Bool("version", false, "print the version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("dockctl-worker %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *once); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Worker failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, once bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	docker, err := engine.NewClient(&cfg.Docker, logger, m.RecordEngineFailure)
	if err != nil {
		return fmt.Errorf("connect to Docker: %w", err)
	}
	defer docker.Close()

	deps := worker.Dependencies{
		Collector: usage.NewCollector(docker, bulk.NewDispatcher(&cfg.Bulk, m.BulkObserver("sample")), logger),
		Cost:      cost.NewAnalyzer(&cfg.Cost),
		Metrics:   m,
		Logger:    logger,
	}

	var stores janitor.Stores
	if cfg.Database.Enabled() {
		st, err := store.Open(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		deps.Recorder = st.Usage
		stores = janitor.Stores{Usage: st.Usage, Actions: st.Actions, Idempotency: st.Idempotency}
		logger.Info("Database connection successful")
	} else {
		logger.Warn("DATABASE_URL is not set, usage samples will not be persisted")
	}

	if cfg.Export.Enabled() {
		exporter, err := export.New(ctx, &cfg.Export, logger)
		if err != nil {
			return fmt.Errorf("configure export: %w", err)
		}
		if err := exporter.VerifyCredentials(ctx); err != nil {
			return fmt.Errorf("verify export credentials: %w", err)
		}
		deps.Exporter = exporter
	}

	w := worker.NewWorker(&cfg.Worker, deps)
	j := janitor.NewJanitor(&cfg.Janitor, stores, logger)

	if once {
		if _, err := w.RunOnce(ctx); err != nil {
			return err
		}
		_, err := j.RunOnce(ctx)
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Start(ctx)
	})

	if cfg.Database.Enabled() {
		g.Go(func() error {
			return j.Start(ctx)
		})
	}

	if cfg.Worker.MetricsAddress != "" {
		srv := &http.Server{
			Addr:              cfg.Worker.MetricsAddress,
			Handler:           m.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("Serving metrics", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info("Worker started",
		zap.String("version", version),
		zap.String("worker_id", cfg.Worker.WorkerID),
		zap.Bool("janitor_enabled", cfg.Database.Enabled()),
		zap.Bool("export_enabled", cfg.Export.Enabled()))

	err = g.Wait()
	logger.Info("Shutdown complete")
	return err
}
