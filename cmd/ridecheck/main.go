package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/ride-check/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/ride-check/internal/adapter/kafka"
	"github.com/couchcryptid/ride-check/internal/adapter/openweather"
	"github.com/couchcryptid/ride-check/internal/adapter/store"
	"github.com/couchcryptid/ride-check/internal/config"
	"github.com/couchcryptid/ride-check/internal/observability"
	"github.com/couchcryptid/ride-check/internal/pipeline"
)

// readinessFunc adapts a function to httpadapter.ReadinessChecker.
type readinessFunc func(ctx context.Context) error

func (f readinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY is not set, ride checks will fail until it is configured")
	}
	client := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.OpenWeatherTimeout, metrics, logger)
	provider := openweather.NewCachedProvider(client, cfg.ForecastCacheSize, cfg.ForecastCacheTTL, clockwork.NewRealClock(), metrics)
	checker := pipeline.NewChecker(provider, cfg.CommuteWindow, cfg.RideDay, cfg.Country, logger, metrics)

	selection, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open selection store", "error", err)
		os.Exit(1)
	}
	defer closeStore()
	logger.Info("selection store ready", "driver", cfg.SelectionStore)

	var ready httpadapter.ReadinessChecker = readinessFunc(func(context.Context) error { return nil })
	var (
		poller *pipeline.Poller
		writer *kafkaadapter.Writer
	)
	if cfg.PollerEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		poller = pipeline.NewPoller(checker, writer, pipeline.PollerOptions{
			Cities:      cfg.PollCities,
			Interval:    cfg.PollInterval,
			Concurrency: cfg.PollConcurrency,
		}, logger, metrics)
		ready = poller
	} else {
		logger.Info("poller disabled, POLL_CITIES is empty")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, checker, selection, ready, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start poller.
	if poller != nil {
		go func() {
			if err := poller.Run(ctx); err != nil {
				logger.Error("poller error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
