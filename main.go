package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kawanchat/server/internal/app"
	"kawanchat/server/internal/config"
	"kawanchat/server/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	if err := run(cfg, zl); err != nil {
		zl.Error("server stopped", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
	zl.Info("server stopped")
	_ = zl.Sync()
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx)
}
