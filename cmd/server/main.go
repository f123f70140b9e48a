package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/evidence-check/internal/config"
	"github.com/garyjia/evidence-check/internal/container"
	httpiface "github.com/garyjia/evidence-check/internal/interfaces/http"
	"github.com/garyjia/evidence-check/pkg/utils"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	// Credentials may live in a local .env file
	_ = gotenv.Load()

	configPath := flag.String("config", configPathFromEnv(), "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting evidence check service",
		zap.String("version", httpiface.Version),
		zap.String("config", *configPath),
		zap.Int("port", cfg.Server.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	// Blocks until a shutdown signal or a listener failure
	serveErr := c.Server().Start(ctx)
	if serveErr != nil {
		logger.Error("HTTP server stopped with error", zap.Error(serveErr))
	}

	if err := c.Close(); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
		os.Exit(1)
	}
	if serveErr != nil {
		os.Exit(1)
	}
}

// configPathFromEnv returns EVIDENCE_CONFIG, the default file when it
// exists, or "" for defaults plus environment
func configPathFromEnv() string {
	if path := os.Getenv("EVIDENCE_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}
