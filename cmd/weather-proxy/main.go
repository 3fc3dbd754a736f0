package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-proxy/internal/api/http"
	"github.com/i474232898/weather-proxy/internal/config"
	"github.com/i474232898/weather-proxy/internal/logger"
	"github.com/i474232898/weather-proxy/internal/scheduler"
	"github.com/i474232898/weather-proxy/internal/store"
	"github.com/i474232898/weather-proxy/internal/weather"
	"github.com/i474232898/weather-proxy/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	if cfg.OpenWeatherAPIKey == "" {
		logr.Warn("OPENWEATHER_API_KEY is not set; upstream lookups will fail")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	scope, err := store.ParseScope(cfg.CacheScope)
	if err != nil {
		logr.Fatal("invalid cache scope", zap.Error(err))
	}
	cache := store.NewMemoryStore(cfg.CacheTTL, store.WithScope(scope))

	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey,
		providers.WithBaseURL(cfg.OpenWeatherBaseURL))

	service := weather.NewService(cache, provider,
		weather.WithDefaultCity(cfg.DefaultCity),
		weather.WithDefaultLang(cfg.DefaultLang),
		weather.WithLogger(logr.Named("lookup")))

	// Background refresh of frequently requested cities.
	sched := scheduler.New(cfg.WarmCities, cfg.WarmInterval, service, logr.Named("scheduler"))
	if err := sched.Start(); err != nil {
		logr.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.AppOptions{
		Logger:           logr.Named("http"),
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:        true,
	})
	httpapi.RegisterRoutes(app, service)

	go func() {
		logr.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logr.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logr.Error("error during shutdown", zap.Error(err))
	}
}
