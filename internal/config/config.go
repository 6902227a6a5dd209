package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

// Config is the complete service configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	CustomVision CustomVisionConfig `yaml:"custom_vision"`
	Storage      StorageConfig      `yaml:"storage"`
	Frames       FramesConfig       `yaml:"frames"`
	Training     TrainingConfig     `yaml:"training"`
	Database     DatabaseConfig     `yaml:"database"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	CORSAllowOrigin string        `yaml:"cors_allow_origin" validate:"required"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" validate:"gt=0"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	EnablePprof     bool          `yaml:"enable_pprof"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type CustomVisionConfig struct {
	Endpoint             string        `yaml:"endpoint" validate:"required,url"`
	TrainingKey          string        `yaml:"training_key" validate:"required"`
	ProjectID            string        `yaml:"project_id" validate:"required"`
	PredictionResourceID string        `yaml:"prediction_resource_id"`
	ModelID              string        `yaml:"model_id"`
	RequestTimeout       time.Duration `yaml:"request_timeout" validate:"gt=0"`
}

type StorageConfig struct {
	Bucket          string `yaml:"bucket" validate:"required"`
	Region          string `yaml:"region" validate:"required"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" validate:"required_with=AccessKeyID"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	PublicBaseURL   string `yaml:"public_base_url" validate:"omitempty,url"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	KeyPrefix       string `yaml:"key_prefix" validate:"required"`
	ACL             string `yaml:"acl"`
}

type FramesConfig struct {
	FFmpegPath string  `yaml:"ffmpeg_path" validate:"required"`
	FrameRate  float64 `yaml:"frame_rate" validate:"gte=0"`
	MaxFrames  int     `yaml:"max_frames" validate:"gte=0"`
	WorkDir    string  `yaml:"work_dir"`
}

type TrainingConfig struct {
	MinImages         int           `yaml:"min_images" validate:"min=1"`
	PollInterval      time.Duration `yaml:"poll_interval" validate:"gt=0"`
	Timeout           time.Duration `yaml:"timeout" validate:"gtfield=PollInterval"`
	UploadConcurrency int           `yaml:"upload_concurrency" validate:"min=1,max=64"`
	ImageBatchSize    int           `yaml:"image_batch_size" validate:"min=1,max=64"`
	TaggedImageTake   int           `yaml:"tagged_image_take" validate:"min=1,max=256"`
}

type DatabaseConfig struct {
	URI         string `yaml:"uri"`
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
}

// Enabled reports whether run history should be persisted.
func (d DatabaseConfig) Enabled() bool {
	return d.URI != ""
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console text"`
	Output string `yaml:"output"`
}

// Defaults returns the configuration used before any file or environment overrides.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			CORSAllowOrigin: utils.CORSAllowOriginAll,
			MaxUploadBytes:  200 << 20,
			ReadTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		CustomVision: CustomVisionConfig{
			RequestTimeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			KeyPrefix: "frames",
			ACL:       "public-read",
		},
		Frames: FramesConfig{
			FFmpegPath: "ffmpeg",
		},
		Training: TrainingConfig{
			MinImages:         5,
			PollInterval:      5 * time.Second,
			Timeout:           30 * time.Minute,
			UploadConcurrency: 8,
			ImageBatchSize:    64,
			TaggedImageTake:   256,
		},
		Database: DatabaseConfig{
			ServiceName: utils.ServiceName,
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load builds the configuration from, in increasing priority: defaults, the
// YAML file named by CONFIG_FILE, and environment variables (including .env).
func Load() (*Config, error) {
	if err := LoadEnvFromMultiplePaths(); err != nil {
		return nil, err
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadYAML(path, &cfg); err != nil {
			return nil, err
		}
	}
	ApplyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadYAML overlays the YAML document at path onto cfg.
func LoadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any variables present in the environment.
func ApplyEnv(cfg *Config) {
	cfg.Server.Host = utils.GetEnvString("HOST", cfg.Server.Host)
	cfg.Server.Port = utils.GetEnvPort("PORT", cfg.Server.Port)
	cfg.Server.CORSAllowOrigin = utils.GetEnvString("CORS_ALLOW_ORIGIN", cfg.Server.CORSAllowOrigin)
	cfg.Server.MaxUploadBytes = utils.GetEnvInt64("MAX_UPLOAD_BYTES", cfg.Server.MaxUploadBytes)
	cfg.Server.ReadTimeout = utils.GetEnvSeconds("READ_TIMEOUT_SECONDS", cfg.Server.ReadTimeout)
	cfg.Server.ShutdownTimeout = utils.GetEnvSeconds("SHUTDOWN_TIMEOUT_SECONDS", cfg.Server.ShutdownTimeout)
	cfg.Server.EnablePprof = utils.GetEnvBool("ENABLE_PPROF", cfg.Server.EnablePprof)

	cfg.CustomVision.Endpoint = utils.GetEnvString("VISION_TRAINING_ENDPOINT", cfg.CustomVision.Endpoint)
	cfg.CustomVision.TrainingKey = utils.GetEnvString("VISION_TRAINING_KEY", cfg.CustomVision.TrainingKey)
	cfg.CustomVision.ProjectID = utils.GetEnvString("VISION_PROJECT_ID", cfg.CustomVision.ProjectID)
	cfg.CustomVision.PredictionResourceID = utils.GetEnvString("PREDICTION_RESOURCE_ID", cfg.CustomVision.PredictionResourceID)
	cfg.CustomVision.ModelID = utils.GetEnvString("CUSTOM_VISION_MODEL_ID", cfg.CustomVision.ModelID)
	cfg.CustomVision.RequestTimeout = utils.GetEnvSeconds("VISION_REQUEST_TIMEOUT_SECONDS", cfg.CustomVision.RequestTimeout)

	cfg.Storage.Bucket = utils.GetEnvString("AWS_S3_BUCKET_NAME", cfg.Storage.Bucket)
	cfg.Storage.Region = utils.GetEnvString("AWS_REGION", cfg.Storage.Region)
	cfg.Storage.AccessKeyID = utils.GetEnvString("AWS_ACCESS_KEY_ID", cfg.Storage.AccessKeyID)
	cfg.Storage.SecretAccessKey = utils.GetEnvString("AWS_SECRET_ACCESS_KEY", cfg.Storage.SecretAccessKey)
	cfg.Storage.Endpoint = utils.GetEnvString("S3_ENDPOINT", cfg.Storage.Endpoint)
	cfg.Storage.PublicBaseURL = utils.GetEnvString("S3_PUBLIC_BASE_URL", cfg.Storage.PublicBaseURL)
	cfg.Storage.UsePathStyle = utils.GetEnvBool("S3_USE_PATH_STYLE", cfg.Storage.UsePathStyle)
	cfg.Storage.KeyPrefix = utils.GetEnvString("S3_KEY_PREFIX", cfg.Storage.KeyPrefix)
	cfg.Storage.ACL = utils.GetEnvString("S3_OBJECT_ACL", cfg.Storage.ACL)

	cfg.Frames.FFmpegPath = utils.GetEnvString("FFMPEG_PATH", cfg.Frames.FFmpegPath)
	cfg.Frames.FrameRate = utils.GetEnvFloat64("FRAME_RATE", cfg.Frames.FrameRate)
	cfg.Frames.MaxFrames = utils.GetEnvInt("MAX_FRAMES", cfg.Frames.MaxFrames)
	cfg.Frames.WorkDir = utils.GetEnvString("WORK_DIR", cfg.Frames.WorkDir)

	cfg.Training.MinImages = utils.GetEnvInt("MIN_TRAINING_IMAGES", cfg.Training.MinImages)
	cfg.Training.PollInterval = utils.GetEnvSeconds("POLL_INTERVAL_SECONDS", cfg.Training.PollInterval)
	cfg.Training.Timeout = utils.GetEnvSeconds("TRAINING_TIMEOUT_SECONDS", cfg.Training.Timeout)
	cfg.Training.UploadConcurrency = utils.GetEnvInt("UPLOAD_CONCURRENCY", cfg.Training.UploadConcurrency)

	cfg.Database.URI = utils.GetEnvString("MONGODB_URI", cfg.Database.URI)
	cfg.Database.ServiceName = utils.GetEnvString("SERVICE_NAME", cfg.Database.ServiceName)
	cfg.Database.Environment = utils.GetEnvString("ENVIRONMENT", cfg.Database.Environment)

	cfg.Logging.Level = utils.GetEnvString("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = utils.GetEnvString("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Output = utils.GetEnvString("LOG_OUTPUT", cfg.Logging.Output)
}
