package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/adapters/memory"
	"github.com/satriahrh/tripvoice/adapters/mongo"
	"github.com/satriahrh/tripvoice/adapters/stt"
	"github.com/satriahrh/tripvoice/domain/repositories"
	"github.com/satriahrh/tripvoice/internal/api"
	"github.com/satriahrh/tripvoice/internal/config"
	"github.com/satriahrh/tripvoice/internal/logging"
	"github.com/satriahrh/tripvoice/internal/metrics"
	"github.com/satriahrh/tripvoice/internal/websocket"
	"github.com/satriahrh/tripvoice/usecase"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize adapters
	speechToText, err := stt.NewProvider(cfg.Provider(), logger)
	if err != nil {
		logger.Fatal("Failed to create speech provider", zap.Error(err))
	}

	var records repositories.TranscriptionRepository
	if cfg.Storage.MongoURI != "" {
		client, err := mongo.NewClient(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer client.Close(context.Background())

		records, err = mongo.NewTranscriptionRepository(ctx, client.Database, logger)
		if err != nil {
			logger.Fatal("Failed to initialize transcription repository", zap.Error(err))
		}
	} else {
		logger.Info("MONGODB_URI not set, keeping transcriptions in memory")
		records = memory.NewTranscriptionRepository()
	}

	m := metrics.New()

	// Initialize usecase services
	transcriptions := usecase.NewTranscriptionService(speechToText, records, m, cfg.Storage.Retention, logger)
	retention := usecase.NewRetentionService(records, cfg.Storage.RetentionInterval, logger)
	retention.Start()
	defer retention.Stop()

	hub := websocket.NewHub(transcriptions, m, logger)
	go hub.Run(ctx)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, transcriptions, hub, api.Options{
		UploadLimit: cfg.Server.UploadLimit,
		Metrics:     m.Handler(),
	}, logger)

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Server.Port),
		zap.String("provider", speechToText.Name()))

	<-ctx.Done()
	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
