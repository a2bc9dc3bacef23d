package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/asteroid-impact-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/asteroid-impact-engine/internal/adapter/kafka"
	"github.com/couchcryptid/asteroid-impact-engine/internal/adapter/landmask"
	"github.com/couchcryptid/asteroid-impact-engine/internal/adapter/mapbox"
	"github.com/couchcryptid/asteroid-impact-engine/internal/api"
	"github.com/couchcryptid/asteroid-impact-engine/internal/config"
	"github.com/couchcryptid/asteroid-impact-engine/internal/domain"
	"github.com/couchcryptid/asteroid-impact-engine/internal/observability"
	"github.com/couchcryptid/asteroid-impact-engine/internal/pipeline"
	"github.com/couchcryptid/asteroid-impact-engine/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := httpadapter.Checks{}
	deps := domain.Dependencies{Logger: logger}

	// Reverse geocoding of impact points (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		deps.Geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Land/ocean classification. Lookups default to land until the mask loads.
	if cfg.LandmaskSource != "" {
		mask := landmask.New(cfg.LandmaskSource, logger, metrics)
		deps.Surface = mask
		checks["landmask"] = mask
		go func() {
			if err := mask.Load(ctx); err != nil {
				logger.Error("land mask load failed", "source", cfg.LandmaskSource, "error", err)
			}
		}()
	} else {
		logger.Info("land mask disabled, unspecified surfaces default to land")
	}

	// Scenario history.
	var store *repository.SQLiteStore
	if cfg.DBPath != "" {
		store, err = repository.Open(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open scenario store", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		checks["history"] = store
		logger.Info("scenario history enabled", "path", cfg.DBPath)
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.RouterOptions{
		AllowOrigins: cfg.CORSAllowOrigins,
		RateLimit:    cfg.APIRateLimit,
		Metrics:      metrics,
	})
	var apiStore api.ScenarioStore
	var recorder pipeline.ScenarioRecorder
	if store != nil {
		apiStore = store
		recorder = store
	}
	api.NewHandler(deps, apiStore, logger).Register(router)

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.PipelineEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(deps, recorder, metrics, logger)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		checks["pipeline"] = p

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, checks, router, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("scenario store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
