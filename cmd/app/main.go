package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airbooker/config"
	"github.com/Domenick1991/airbooker/internal/bootstrap"
	"github.com/Domenick1991/airbooker/internal/logger"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("init app", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("close app", slog.String("error", err.Error()))
		}
	}()

	if err := bootstrap.Run(ctx, cfg, log, app.Engine, app.Checks...); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		return
	}
	log.Info("server stopped")
}
