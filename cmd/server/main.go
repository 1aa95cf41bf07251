package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MediaVault-Hub/Asset-Service/internal/api"
	assethandler "github.com/MediaVault-Hub/Asset-Service/internal/api/handlers/asset"
	"github.com/MediaVault-Hub/Asset-Service/internal/blobstore"
	"github.com/MediaVault-Hub/Asset-Service/internal/configuration"
	"github.com/MediaVault-Hub/Asset-Service/internal/events"
	"github.com/MediaVault-Hub/Asset-Service/internal/media"
	"github.com/MediaVault-Hub/Asset-Service/internal/pipeline"
	"github.com/MediaVault-Hub/Asset-Service/internal/repository"
	"github.com/MediaVault-Hub/Asset-Service/internal/scan"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := configuration.Load()

	repo, err := repository.Connect(cfg.Database.ConnectionString())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database ready")

	blobs := blobstore.New(cfg.Storage.Root)

	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		publisher, err = events.Connect(cfg.NATSURL, logger)
		if err != nil {
			logger.Warn("event publishing disabled", "error", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	images := media.NewImageProcessor(cfg.Media.ThumbnailSize, cfg.Media.ThumbnailQuality)
	videos := media.NewVideoProcessor(
		cfg.Media.FFmpegPath,
		cfg.Media.ProbeTimeout,
		cfg.Media.FrameOffset,
		cfg.Media.ThumbnailSize,
		cfg.Media.ThumbnailQuality,
	)

	var eventSink pipeline.EventPublisher
	if publisher != nil {
		eventSink = publisher
	}
	ingest := pipeline.New(repo, blobs, images, videos, eventSink, logger, cfg.Media.DeriveWorkers)

	var scanner *scan.Scanner
	if cfg.ClamAV != "" {
		scanner = scan.New(cfg.ClamAV, repo, blobs, publisher, logger)
		logger.Info("virus scanning enabled", "clamav", cfg.ClamAV)
	}

	handler := assethandler.NewHandler(ingest, repo, blobs, publisher, scanner, logger, cfg.Server.MaxUploadSize)

	r := gin.Default()
	r.MaxMultipartMemory = 32 << 20
	api.RegisterRoutes(r, handler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "asset_root", cfg.Storage.Root)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}
