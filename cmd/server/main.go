package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/grievance_desk/backend/internal/ai"
	"github.com/grievance_desk/backend/internal/config"
	"github.com/grievance_desk/backend/internal/db"
	httpapi "github.com/grievance_desk/backend/internal/http"
	"github.com/grievance_desk/backend/internal/metrics"
	"github.com/grievance_desk/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "grievance-backend").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	var adapter ai.Adapter
	if cfg.AIURL == "" {
		adapter = ai.MockAdapter{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock AI adapter")
	} else {
		adapter = ai.HTTPAdapter{BaseURL: cfg.AIURL}
	}

	sessions := service.NewSessionTracker(cfg.SessionTTL, cfg.SessionMaxEntries, cfg.SessionSweepInterval, logger)
	go sessions.RunSweeper(ctx)

	reg := metrics.NewRegistry()

	ingest := &service.IngestService{
		Store:              store,
		AI:                 adapter,
		Sessions:           sessions,
		Metrics:            reg,
		Logger:             logger,
		DuplicateThreshold: cfg.DuplicateThreshold,
		Retries:            cfg.IngestRetries,
		Heuristics: service.HeuristicConfig{
			NoiseMinEntries:    cfg.NoiseMinEntries,
			NoiseMaxAvgGap:     cfg.NoiseMaxAvgGap,
			NoiseMinSimilarity: cfg.NoiseMinSimilarity,
		},
	}

	router := httpapi.Router(cfg, store, ingest, sessions, reg, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
