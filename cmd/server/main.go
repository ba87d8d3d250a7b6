package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ticket-checkout/internal/config"
	"ticket-checkout/internal/logger"
	"ticket-checkout/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zl, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer zl.Sync()

	app, err := server.NewApp(cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize checkout", zap.Error(err))
	}
	defer app.Close()

	srv, err := server.New(app)
	if err != nil {
		zl.Fatal("failed to initialize server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		zl.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
