package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Domenick1991/airbooker/config"
	"github.com/Domenick1991/airbooker/internal/cache"
	"github.com/Domenick1991/airbooker/internal/kafka"
	"github.com/Domenick1991/airbooker/internal/repository"
	"github.com/Domenick1991/airbooker/internal/service/reservation"
)

// App holds the engine and everything it was wired with.
type App struct {
	Engine  *reservation.Engine
	Storage repository.Storage
	Checks  []HealthCheck

	cache    *cache.RedisCache
	producer *kafka.Producer
}

// NewApp opens storage and the optional Redis cache and Kafka producer.
// Redis and Kafka are skipped when not configured; an unreachable Redis is
// logged and left out, since the engine works without a cache.
func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	storage, err := OpenStorage(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	app := &App{Storage: storage}
	opts := []reservation.Option{reservation.WithLogger(log)}

	app.Checks = append(app.Checks, HealthCheck{
		Name: "storage",
		Check: func(ctx context.Context) error {
			_, err := storage.ListFlights(ctx)
			return err
		},
	})

	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Cache.FlightsTTLSeconds)*time.Second)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := redisCache.Ping(pingCtx)
		cancel()
		if err != nil {
			log.WarnContext(ctx, "redis unavailable, flight cache disabled", slog.String("addr", cfg.Redis.Addr), slog.String("error", err.Error()))
			_ = redisCache.Close()
		} else {
			app.cache = redisCache
			opts = append(opts, reservation.WithCache(redisCache))
			app.Checks = append(app.Checks, HealthCheck{Name: "redis", Check: redisCache.Ping})
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		app.producer = kafka.NewProducer(cfg.Kafka.Brokers)
		opts = append(opts, reservation.WithProducer(app.producer, cfg.Kafka.BookingTopic, cfg.Kafka.NotificationsTopic))
		app.Checks = append(app.Checks, HealthCheck{Name: "kafka", Check: app.producer.CheckConnection})
	}

	app.Engine = reservation.NewEngine(storage, opts...)
	return app, nil
}

func (a *App) Close() error {
	var errs []error
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	errs = append(errs, a.Storage.Close())
	return errors.Join(errs...)
}
