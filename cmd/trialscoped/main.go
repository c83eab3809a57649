// Command trialscoped is the Trialscope dashboard service.
// It serves the dashboard API, the Prometheus endpoint and a health check,
// configured from an optional YAML file plus environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/trialscope/trialscope/internal/server"
	"github.com/trialscope/trialscope/pkg/config"
	"github.com/trialscope/trialscope/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "trialscoped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	return srv.Run(ctx)
}

// loadConfig reads TRIALSCOPE_CONFIG when set, then applies the
// environment overrides.
func loadConfig(getenv func(string) string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := getenv("TRIALSCOPE_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dir := getenv("LOCAL_STORAGE_PATH"); dir != "" {
		cfg.Source.Path = dir
	}
	cfg.ApplyEnv(getenv)
	if level := getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}
