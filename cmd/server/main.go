package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"mdgate/internal/app"
	"mdgate/internal/config"
	"mdgate/internal/logging"
)

func main() {
	addr := flag.String("addr", getEnv("ADDR", "127.0.0.1:8080"), "listen address")
	configPath := flag.String("config", "", "path to mdgate.toml (default: ./mdgate.toml or MDGATE_CONFIG)")
	flag.Parse()

	settings, err := config.Resolve(config.ConfigPath(*configPath))
	if err != nil {
		log.Fatalf("resolve config: %v", err)
	}

	logger, err := logging.Setup(settings.LogLevel)
	if err != nil {
		log.Fatalf("set up logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, *addr, settings, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func getEnv(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}
