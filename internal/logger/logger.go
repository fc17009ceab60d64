package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Logger holds the structured logger instance
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration
type Config struct {
	Level       string
	Format      string
	Service     string
	Version     string
	Environment string
}

// New creates a new structured logger with the given configuration
func New(cfg Config) (*Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "DEBUG", "debug":
		level = slog.LevelDebug
	case "INFO", "info":
		level = slog.LevelInfo
	case "WARN", "warn":
		level = slog.LevelWarn
	case "ERROR", "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}

	logger := slog.New(handler)

	// Add contextual fields
	logger = logger.With(
		slog.String("service", cfg.Service),
		slog.String("version", cfg.Version),
	)
	if cfg.Environment != "" {
		logger = logger.With(slog.String("environment", cfg.Environment))
	}

	return &Logger{Logger: logger}, nil
}

// NewDefault creates a logger with default configuration
func NewDefault() (*Logger, error) {
	return New(Config{
		Level:   "info",
		Format:  "json",
		Service: "mcp-gateway",
		Version: "dev",
	})
}
