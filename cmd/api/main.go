package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"placement-portal/internal/api"
	"placement-portal/internal/auth"
	"placement-portal/internal/config"
	"placement-portal/internal/db"
	"placement-portal/internal/listing"
	"placement-portal/internal/logger"
	"placement-portal/internal/mirror"
	"placement-portal/internal/queue"
	"placement-portal/internal/storage"
	"placement-portal/internal/viewmodel"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting API server")

	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if cfg.Database.MigrateOnStart {
		if err := db.Migrate(context.Background(), database, cfg.Database.Driver, cfg.Listings.Collection); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	repo := db.NewRepository(database, cfg.Listings.Collection)

	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	producer := queue.NewProducer(redisClient, cfg)

	s3Storage, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
	}
	assets := storage.NewAssetHost(s3Storage, cfg.AssetBaseURL())

	sessions := auth.NewRedisSessionStore(redisClient.Client(), cfg.Redis.SessionPrefix)

	handler := api.NewHandler(cfg, api.Services{
		Auth:     auth.NewService(cfg, repo, sessions),
		Listings: listing.NewService(repo, assets, producer),
		Records:  repo,
		Imports:  repo,
		Queue:    producer,
		Storage:  s3Storage,
		Mirror:   mirror.NewService(cfg, repo),
		Queues:   redisClient,
	}, viewmodel.NewRegistry())

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(handler, cfg.Server.MaxUploadBytes)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
