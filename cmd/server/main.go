package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/api/handlers"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/api/routes"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/config"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/agent"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/service/document"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/internal/store"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/logger"
	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/pkg/storage"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel(cfg.Log.Level),
		logger.WithEncoding(cfg.Log.Encoding),
		logger.WithRotation(cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays),
		logger.WithOutputPaths(cfg.Log.OutputPaths),
		logger.WithInitialFields(map[string]interface{}{"service": "study-server"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docStore, err := store.New(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal("Failed to open document store", logger.Error(err))
	}
	defer docStore.Close()

	blobs, err := storage.NewStorage(ctx, cfg.Blob, log)
	if err != nil {
		log.Fatal("Failed to init file archive", logger.Error(err))
	}

	analyzer, err := agent.NewAnalyzer(ctx, cfg.Analyzer, log.Named("analyzer"))
	if err != nil {
		log.Fatal("Failed to init analyzer", logger.Error(err))
	}
	defer analyzer.Close()

	docService := document.NewService(docStore, analyzer, blobs, log.Named("documents"), &document.ServiceConfig{
		MaxFileSize:  cfg.Upload.MaxFileSize,
		AllowedTypes: cfg.Upload.AllowedTypes,
	})

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handlers.NewHandlers(docService, log.Named("http"), handlers.Options{MaxFileSize: cfg.Upload.MaxFileSize})
	r := gin.New()
	routes.SetupRoutes(r, h, log.Named("http"), cfg.Server.AllowOrigins)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("Server error", logger.Error(err))
			os.Exit(1)
		}
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
