package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"placement-portal/internal/config"
	"placement-portal/internal/db"
	"placement-portal/internal/logger"
	"placement-portal/internal/queue"
	"placement-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting mirror worker")

	if cfg.Mirror.WebhookURL == "" {
		log.Warn().Msg("No spreadsheet webhook configured, every mirror job will be dead-lettered")
	}

	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	repo := db.NewRepository(database, cfg.Listings.Collection)

	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	mirrorWorker := worker.NewMirrorWorker(cfg, repo, redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := mirrorWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("Mirror worker failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down mirror worker...")

	cancel()
	<-done
	mirrorWorker.Stop()

	log.Info().Msg("Mirror worker exited")
}
