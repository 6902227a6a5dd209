package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VISION_TRAINING_ENDPOINT", "https://wheels.cognitiveservices.azure.com")
	t.Setenv("VISION_TRAINING_KEY", "training-key")
	t.Setenv("VISION_PROJECT_ID", "5f0d7c1e-0000-4000-8000-000000000001")
	t.Setenv("AWS_S3_BUCKET_NAME", "wheel-frames")
	t.Setenv("AWS_REGION", "eu-west-1")
}

func TestDefaultsAreIncomplete(t *testing.T) {
	cfg := Defaults()
	err := Validate(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom_vision.endpoint")
	assert.Contains(t, err.Error(), "storage.bucket")
}

func TestLoadFromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("POLL_INTERVAL_SECONDS", "2")
	t.Setenv("MIN_TRAINING_IMAGES", "10")
	t.Setenv("PREDICTION_RESOURCE_ID", "/subscriptions/x/resourceGroups/y")
	t.Setenv("FRAME_RATE", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, 2*time.Second, cfg.Training.PollInterval)
	assert.Equal(t, 10, cfg.Training.MinImages)
	assert.Equal(t, 2.5, cfg.Frames.FrameRate)
	assert.Equal(t, "wheel-frames", cfg.Storage.Bucket)
	assert.Equal(t, "frames", cfg.Storage.KeyPrefix)
	assert.Equal(t, "/subscriptions/x/resourceGroups/y", cfg.CustomVision.PredictionResourceID)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		contains string
	}{
		{"bad endpoint", "VISION_TRAINING_ENDPOINT", "not a url", "custom_vision.endpoint"},
		{"bad log level", "LOG_LEVEL", "chatty", "logging.level"},
		{"too much concurrency", "UPLOAD_CONCURRENCY", "500", "training.upload_concurrency"},
		{"timeout below poll interval", "TRAINING_TIMEOUT_SECONDS", "1", "training.timeout"},
		{"secret without key id", "AWS_ACCESS_KEY_ID", "AKIA123", "storage.secret_access_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestYAMLOverlayAndEnvPriority(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7070
  cors_allow_origin: "https://capture.example.com"
training:
  poll_interval: 10s
  min_images: 8
storage:
  bucket: yaml-bucket
  public_base_url: "https://cdn.example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "https://capture.example.com", cfg.Server.CORSAllowOrigin)
	assert.Equal(t, 10*time.Second, cfg.Training.PollInterval)
	assert.Equal(t, 8, cfg.Training.MinImages)
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicBaseURL)
	// environment wins over the file
	assert.Equal(t, "wheel-frames", cfg.Storage.Bucket)
}

func TestLoadYAMLErrors(t *testing.T) {
	cfg := Defaults()
	assert.Error(t, LoadYAML("/nonexistent/config.yaml", &cfg))

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))
	assert.Error(t, LoadYAML(path, &cfg))
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("WT_FROM_FILE=file\nWT_PRESET=file\n"), 0o600))
	t.Setenv("WT_PRESET", "process")
	t.Cleanup(func() { os.Unsetenv("WT_FROM_FILE") })

	require.NoError(t, LoadEnvFile(envFile))

	assert.Equal(t, "file", os.Getenv("WT_FROM_FILE"))
	assert.Equal(t, "process", os.Getenv("WT_PRESET"), "process environment must not be overridden")
}

func TestLoadEnvFileMissing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}
