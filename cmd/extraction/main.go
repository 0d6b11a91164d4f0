package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment_recovery/internal/app"
	"payment_recovery/internal/domain/extraction"
	"payment_recovery/internal/infra/config"
	"payment_recovery/internal/infra/extractors"
	"payment_recovery/internal/infra/httpapi"
	"payment_recovery/internal/infra/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadExtraction()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg.LogConfig)
	mainLogger := logger.Component("main")

	if cfg.Environment == "production" || cfg.Environment == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}

	if _, err := os.Stat(cfg.FileBasePath); err != nil {
		mainLogger.WithError(err).WithField("base_path", cfg.FileBasePath).Warn("File base path is not accessible yet")
	}

	extractorLogger := logger.Component("extractor")
	service := app.NewExtractionService(cfg.FileBasePath, extractors.Classify, []extraction.Extractor{
		extractors.NewPDFExtractor(cfg.PdftotextBin, nil, extractorLogger),
		extractors.NewExcelExtractor(extractorLogger),
		extractors.NewImageExtractor(extractorLogger),
		extractors.DocExtractor{},
	}, logger.Component("extraction_service"))

	handler := httpapi.NewExtractionHandler(service, cfg.Timeout, logger.Component("http"))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(handler, logger.Component("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		mainLogger.WithField("addr", cfg.Addr).Info("Extraction service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down extraction service...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		mainLogger.WithError(err).Error("Forced shutdown")
	}
	mainLogger.Info("Extraction service stopped")
}
