// Package server assembles the dependency chain and runs the HTTP service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	gcs "cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"

	"github.com/mannyyang/docubeam/internal/config"
	"github.com/mannyyang/docubeam/internal/metadata"
	"github.com/mannyyang/docubeam/internal/ocr"
	"github.com/mannyyang/docubeam/internal/retrieval"
	"github.com/mannyyang/docubeam/internal/server/handler"
	"github.com/mannyyang/docubeam/internal/server/router"
	"github.com/mannyyang/docubeam/internal/services"
	"github.com/mannyyang/docubeam/internal/storage"
)

// Run loads configuration, builds the dependency chain, and serves until the
// listener fails.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if cfg.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	gcsClient, err := gcs.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	store := storage.NewGCSStore(gcsClient, cfg.StorageBucket)

	ocrClient, err := ocr.NewClient(ocr.ClientConfig{
		APIKey:  cfg.OCRAPIKey,
		BaseURL: cfg.OCRBaseURL,
		Model:   cfg.OCRModel,
		Timeout: cfg.OCRTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("create ocr client: %w", err)
	}

	gateway := storage.NewGateway(store, log)
	meta := metadata.NewStore(store, log)
	reads := retrieval.NewService(gateway, log)
	dispatcher := services.NewPoolDispatcher(cfg.OCRWorkers, cfg.OCRTimeout, log)
	docs := services.NewDocumentService(gateway, meta, ocrClient, reads, dispatcher, cfg.PublicBaseURL, log)

	docHandler := handler.NewDocumentHandler(docs, reads, gateway, log)
	r := router.New(cfg.APIKey, docHandler)

	addr := ":" + cfg.Port
	log.Info("listening", "addr", addr, "bucket", cfg.StorageBucket)
	defer dispatcher.Wait()
	return r.Run(addr)
}
