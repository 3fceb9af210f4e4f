package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tsanders-rh/dockctl/internal/ai"
	"github.com/tsanders-rh/dockctl/internal/api"
	"github.com/tsanders-rh/dockctl/internal/auth"
	"github.com/tsanders-rh/dockctl/internal/config"
	"github.com/tsanders-rh/dockctl/internal/cost"
	"github.com/tsanders-rh/dockctl/internal/engine"
	"github.com/tsanders-rh/dockctl/internal/host"
	"github.com/tsanders-rh/dockctl/internal/logging"
	"github.com/tsanders-rh/dockctl/internal/metrics"
	"github.com/tsanders-rh/dockctl/internal/store"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	configPath := pflag.StringP("config", "c", "", fmt.Sprintf("path to the YAML config file (default %s if present)", config.DefaultPath))
	showVersion := pflag.Bool("version", false, "print the version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("dockctl-api %s\n", version)
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

	if err := run(cfg, logger); err != nil {
		logger.Fatal("API server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	docker, err := engine.NewClient(&cfg.Docker, logger, m.RecordEngineFailure)
	if err != nil {
		return fmt.Errorf("connect to Docker: %w", err)
	}
	defer docker.Close()

	authService, err := auth.NewAuth(&cfg.Auth)
	if err != nil {
		return fmt.Errorf("initialize auth: %w", err)
	}
	if !authService.Enabled() {
		logger.Warn("API_KEY is not set, authentication is disabled")
	}

	analyzer := ai.NewClient(&cfg.AI, logger)
	if !analyzer.Enabled() {
		logger.Warn("OPENAI_API_KEY is not set, AI endpoints will return 503")
	}

	deps := api.Dependencies{
		Engine:  docker,
		AI:      analyzer,
		Auth:    authService,
		Cost:    cost.NewAnalyzer(&cfg.Cost),
		Host:    host.NewInspector(logger),
		Metrics: m,
		Bulk:    &cfg.Bulk,
		Logger:  logger,
	}

	if cfg.Database.Enabled() {
		st, err := store.Open(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		deps.UseStore(st)
		logger.Info("Persistence enabled")
	}

	cfg.Server.SelfID = api.ResolveSelfID(cfg.Server.SelfID)
	server := api.NewServer(&cfg.Server, deps)

	logger.Info("Server configured",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("auth_enabled", authService.Enabled()),
		zap.Bool("ai_enabled", analyzer.Enabled()),
		zap.Bool("persistence_enabled", cfg.Database.Enabled()),
		zap.Strings("cors_origins", cfg.Server.AllowedOrigins),
		zap.String("self_id", cfg.Server.SelfID))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
