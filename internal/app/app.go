// Package app wires configuration, vendor clients and the HTTP surface into
// one running service.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wheelscan/go-wheel-trainer/internal/config"
	"github.com/wheelscan/go-wheel-trainer/internal/customvision"
	"github.com/wheelscan/go-wheel-trainer/internal/database"
	"github.com/wheelscan/go-wheel-trainer/internal/frames"
	"github.com/wheelscan/go-wheel-trainer/internal/handlers"
	"github.com/wheelscan/go-wheel-trainer/internal/health"
	"github.com/wheelscan/go-wheel-trainer/internal/logger"
	"github.com/wheelscan/go-wheel-trainer/internal/monitoring"
	"github.com/wheelscan/go-wheel-trainer/internal/router"
	"github.com/wheelscan/go-wheel-trainer/internal/storage"
	"github.com/wheelscan/go-wheel-trainer/internal/training"
)

// App centralizes the application's dependencies and configuration
type App struct {
	Config  *config.Config
	Vision  *customvision.Client
	Store   *storage.S3Store
	Trainer *training.Trainer
	// Runs is nil when run history is disabled.
	Runs    *database.RunRepository
	Health  *health.HealthChecker
	Metrics *monitoring.Metrics

	conn *database.Connection
}

// InitLogger builds the global logger from cfg.
func InitLogger(cfg *config.Config) error {
	return logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: cfg.Database.ServiceName,
		Environment: cfg.Database.Environment,
	})
}

// New creates a new App instance with all dependencies. Run history is
// connected only when a MongoDB URI is configured.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	ctx = logger.WithComponent(ctx, logger.ComponentNames.App)

	vision, err := customvision.New(customvision.Options{
		Endpoint:    cfg.CustomVision.Endpoint,
		TrainingKey: cfg.CustomVision.TrainingKey,
		ProjectID:   cfg.CustomVision.ProjectID,
		Timeout:     cfg.CustomVision.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create custom vision client: %w", err)
	}

	store, err := storage.NewS3Store(ctx, storage.S3Options{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Endpoint:        cfg.Storage.Endpoint,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		UsePathStyle:    cfg.Storage.UsePathStyle,
		ACL:             cfg.Storage.ACL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}

	a := &App{
		Config:  cfg,
		Vision:  vision,
		Store:   store,
		Metrics: monitoring.GetMetrics(),
	}

	var recorder training.RunRecorder = training.NoopRecorder{}
	if cfg.Database.Enabled() {
		conn, err := database.Connect(ctx, database.NewDatabaseConfig(cfg.Database.URI, cfg.Database.ServiceName, cfg.Database.Environment))
		if err != nil {
			return nil, fmt.Errorf("failed to connect run history: %w", err)
		}
		a.conn = conn
		a.Runs = database.NewRunRepository(conn)
		recorder = a.Runs
	} else {
		logger.InfoCtx(ctx, "Run history disabled; MONGODB_URI is not set")
	}

	extractor := frames.NewExtractor(frames.Options{
		FFmpegPath: cfg.Frames.FFmpegPath,
		FrameRate:  cfg.Frames.FrameRate,
		MaxFrames:  cfg.Frames.MaxFrames,
	})

	a.Trainer = training.NewTrainer(training.Config{
		MinImages:            cfg.Training.MinImages,
		PollInterval:         cfg.Training.PollInterval,
		Timeout:              cfg.Training.Timeout,
		UploadConcurrency:    cfg.Training.UploadConcurrency,
		ImageBatchSize:       cfg.Training.ImageBatchSize,
		TaggedImageTake:      cfg.Training.TaggedImageTake,
		KeyPrefix:            cfg.Storage.KeyPrefix,
		WorkDir:              cfg.Frames.WorkDir,
		PredictionResourceID: cfg.CustomVision.PredictionResourceID,
	}, extractor, store, vision, recorder)

	deps := health.Dependencies{Config: cfg, ObjectStore: health.PingerFunc(store.Check)}
	if a.conn != nil {
		deps.RunHistory = a.conn
	}
	a.Health = health.CreateStandardHealthChecks(deps)

	logger.InfoCtx(ctx, "Application initialized",
		"project_id", vision.ProjectID(),
		"bucket", store.Bucket(),
		"run_history", a.Runs != nil,
		"publishing", cfg.CustomVision.PredictionResourceID != "")
	return a, nil
}

// Handler returns the HTTP surface of the service.
func (a *App) Handler() http.Handler {
	var runs handlers.RunLister
	if a.Runs != nil {
		runs = a.Runs
	}
	apiHandlers := handlers.NewAPIHandlers(a.Trainer, runs, a.Metrics, a.Config.Server.MaxUploadBytes, a.Config.Frames.WorkDir)
	return router.SetupRoutes(apiHandlers, a.Health, router.Options{
		CORSAllowOrigin: a.Config.Server.CORSAllowOrigin,
		EnablePprof:     a.Config.Server.EnablePprof,
	})
}

// Close releases the run history connection.
func (a *App) Close(ctx context.Context) error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Disconnect(ctx)
}
