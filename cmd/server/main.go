package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wheelscan/go-wheel-trainer/docs"
	"github.com/wheelscan/go-wheel-trainer/internal/app"
	"github.com/wheelscan/go-wheel-trainer/internal/config"
	"github.com/wheelscan/go-wheel-trainer/internal/logger"
)

// @title           Wheel Trainer API
// @version         1.0
// @description     Trains a Custom Vision model on wheel videos: frames are extracted, stored in S3, tagged, trained and published.

// @contact.name   WheelScan Engineering
// @contact.url    https://github.com/wheelscan/go-wheel-trainer

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Can't use logger here as it is configured from cfg
		_, _ = os.Stderr.WriteString("FATAL: Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := app.InitLogger(cfg); err != nil {
		_, _ = os.Stderr.WriteString("FATAL: Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	docs.SwaggerInfo.Host = cfg.Server.Addr()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           application.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		IdleTimeout:       cfg.Server.ReadTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", "error", err)
			_ = application.Close(context.Background())
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	if err := application.Close(shutdownCtx); err != nil {
		logger.Error("Failed to close run history", "error", err)
	}
	logger.Info("Server stopped")
}
