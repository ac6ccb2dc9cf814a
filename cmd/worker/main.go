package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airbooker/config"
	"github.com/Domenick1991/airbooker/internal/email"
	"github.com/Domenick1991/airbooker/internal/kafka"
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

	if len(cfg.Kafka.Brokers) == 0 {
		log.Error("kafka brokers are not configured")
		os.Exit(1)
	}

	topic := cfg.Kafka.NotificationsTopic
	if topic == "" {
		topic = cfg.Kafka.BookingTopic
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic)
	defer consumer.Close()

	sender := email.NewSender(log)

	log.Info("worker consuming", slog.String("topic", topic), slog.String("group", cfg.Kafka.GroupID))
	if err := consumer.Consume(ctx, sender.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer stopped", slog.String("error", err.Error()))
		return
	}
	log.Info("worker stopped")
}
