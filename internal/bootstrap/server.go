package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Domenick1991/airbooker/api"
	"github.com/Domenick1991/airbooker/config"
	"github.com/Domenick1991/airbooker/internal/service/reservation"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Run serves the HTTP API and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, log *slog.Logger, svc reservation.UseCase, checks ...HealthCheck) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, log, svc, checks...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", slog.String("address", cfg.HTTP.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg *config.Config, log *slog.Logger, svc reservation.UseCase, checks ...HealthCheck) *gin.Engine {
	engine := gin.New()
	engine.Use(api.RequestID(), api.RequestLogger(log), gin.Recovery())
	engine.Use(cors.New(corsConfig(cfg.HTTP.AllowOrigins)))

	engine.GET("/healthz", healthHandler(checks))

	v1 := engine.Group("/api/v1")
	api.NewFlightHandler(svc).Register(v1.Group("/flights"))
	api.NewBookingHandler(svc).Register(v1.Group("/bookings"))

	return engine
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", api.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", api.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func healthHandler(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[hc.Name] = "unavailable"
				continue
			}
			results[hc.Name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "checks": results})
	}
}
