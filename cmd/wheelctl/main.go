// Command wheelctl runs the wheel training pipeline from a shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wheelscan/go-wheel-trainer/internal/app"
	"github.com/wheelscan/go-wheel-trainer/internal/config"
	"github.com/wheelscan/go-wheel-trainer/internal/customvision"
	"github.com/wheelscan/go-wheel-trainer/internal/database"
	"github.com/wheelscan/go-wheel-trainer/internal/logger"
	"github.com/wheelscan/go-wheel-trainer/internal/training"
)

// service is what the commands drive; app.App satisfies it through adapters.
type service interface {
	Train(ctx context.Context, in training.Input) (*training.Result, error)
	ClearTags(ctx context.Context) (*training.ClearResult, error)
	ListTags(ctx context.Context) ([]customvision.Tag, error)
	ListRuns(ctx context.Context, tag string, limit int) ([]database.TrainingRun, error)
	Close(ctx context.Context) error
}

var (
	configFile string
	timeout    time.Duration

	// newService is replaced in tests.
	newService = openApp
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wheelctl",
	Short: "Operate the wheel training pipeline",
	Long: `wheelctl runs the same training sequence as the HTTP service.

Configuration is read from .env, CONFIG_FILE and the environment, exactly
as the server does.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 45*time.Minute, "Operation timeout")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(clearTagsCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type appService struct {
	*app.App
}

func (s appService) Train(ctx context.Context, in training.Input) (*training.Result, error) {
	return s.Trainer.Train(ctx, in)
}

func (s appService) ClearTags(ctx context.Context) (*training.ClearResult, error) {
	return s.Trainer.ClearTags(ctx)
}

func (s appService) ListTags(ctx context.Context) ([]customvision.Tag, error) {
	return s.Trainer.ListTags(ctx)
}

func (s appService) ListRuns(ctx context.Context, tag string, limit int) ([]database.TrainingRun, error) {
	if s.Runs == nil {
		return nil, fmt.Errorf("run history is disabled; set MONGODB_URI")
	}
	if tag != "" {
		return s.Runs.ListByTag(ctx, tag, limit)
	}
	return s.Runs.ListRecent(ctx, limit)
}

func openApp(ctx context.Context) (service, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := app.InitLogger(cfg); err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return appService{a}, nil
}

// withService runs fn with a service bounded by the timeout flag and interrupt signals.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc service) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(context.Background()); err != nil {
			logger.Warn("Failed to close service", "error", err)
		}
		_ = logger.Sync()
	}()
	return fn(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
