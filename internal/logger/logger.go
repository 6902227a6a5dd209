package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Context keys
type contextKey string

const (
	RequestIDKey     contextKey = "request_id"
	CorrelationIDKey contextKey = "correlation_id"
	ComponentKey     contextKey = "component"
	StageKey         contextKey = "stage"
	RunIDKey         contextKey = "run_id"
)

// Config controls how the global logger is built.
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // "json" or "console"
	Output      string // "stdout", "stderr", or file path
	ServiceName string
	Environment string
}

// DefaultConfig writes JSON at info level to stdout.
var DefaultConfig = Config{
	Level:       "info",
	Format:      "json",
	Output:      "stdout",
	ServiceName: "go-wheel-trainer",
	Environment: "development",
}

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init builds the global logger from config.
func Init(config Config) error {
	level, err := zapcore.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}

	var sink zapcore.WriteSyncer
	switch config.Output {
	case "stdout", "":
		sink = zapcore.Lock(os.Stdout)
	case "stderr":
		sink = zapcore.Lock(os.Stderr)
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", config.Output, err)
		}
		sink = zapcore.AddSync(file)
	}

	core := zapcore.NewCore(newEncoder(config.Format), sink, level)
	SetLogger(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).With(
		zap.String("service", config.ServiceName),
		zap.String("environment", config.Environment),
	))
	return nil
}

// InitFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT, SERVICE_NAME and ENVIRONMENT.
func InitFromEnv() error {
	config := DefaultConfig
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		config.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		config.Output = v
	}
	if v := os.Getenv("SERVICE_NAME"); v != "" {
		config.ServiceName = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		config.Environment = v
	}
	return Init(config)
}

func newEncoder(format string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if format == "console" || format == "text" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

// SetLogger replaces the global logger. Callers must account for the two
// wrapper frames when adding caller information.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// L returns the global zap logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Sync flushes buffered entries.
func Sync() error {
	return L().Sync()
}

func Debug(msg string, keysAndValues ...any) { logw(nil, zapcore.DebugLevel, msg, keysAndValues) }
func Info(msg string, keysAndValues ...any)  { logw(nil, zapcore.InfoLevel, msg, keysAndValues) }
func Warn(msg string, keysAndValues ...any)  { logw(nil, zapcore.WarnLevel, msg, keysAndValues) }
func Error(msg string, keysAndValues ...any) { logw(nil, zapcore.ErrorLevel, msg, keysAndValues) }

// Context-aware variants attach request, component, stage and run identifiers.
func DebugCtx(ctx context.Context, msg string, keysAndValues ...any) {
	logw(ctx, zapcore.DebugLevel, msg, keysAndValues)
}

func InfoCtx(ctx context.Context, msg string, keysAndValues ...any) {
	logw(ctx, zapcore.InfoLevel, msg, keysAndValues)
}

func WarnCtx(ctx context.Context, msg string, keysAndValues ...any) {
	logw(ctx, zapcore.WarnLevel, msg, keysAndValues)
}

func ErrorCtx(ctx context.Context, msg string, keysAndValues ...any) {
	logw(ctx, zapcore.ErrorLevel, msg, keysAndValues)
}

func logw(ctx context.Context, level zapcore.Level, msg string, keysAndValues []any) {
	L().Sugar().Logw(level, msg, appendContextValues(ctx, keysAndValues)...)
}

func appendContextValues(ctx context.Context, args []any) []any {
	if ctx == nil {
		return args
	}
	for _, key := range []contextKey{RequestIDKey, CorrelationIDKey, RunIDKey, ComponentKey, StageKey} {
		if value, ok := ctx.Value(key).(string); ok && value != "" {
			args = append(args, string(key), value)
		}
	}
	return args
}

// WithRequestID stores the request id used to correlate log lines.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFromContext returns the request id or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ComponentKey, component)
}

func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}
