package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	// RunIDKey is the context key for a diagnosis/execution run id
	RunIDKey ContextKey = "run_id"
	// StreamIDKey is the context key for a stream id
	StreamIDKey ContextKey = "stream_id"
	// TaskIDKey is the context key for a scheduler task id
	TaskIDKey ContextKey = "task_id"
)

// Config holds logger configuration
type Config struct {
	Level      string
	Format     string // "json" or "console"
	Output     string // "stdout", "stderr", or file path
	TimeFormat string
	Component  string // subsystem name, e.g. "pipeline", "scheduler"
}

// New creates a new logger with the specified level
func New(level string) zerolog.Logger {
	return NewWithConfig(Config{
		Level:      level,
		Format:     "json",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	})
}

// NewWithConfig creates a new logger with custom configuration
func NewWithConfig(cfg Config) zerolog.Logger {
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	var output *os.File
	switch cfg.Output {
	case "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stderr
	}

	var logger zerolog.Logger
	if cfg.Format == "console" || (strings.ToLower(os.Getenv("GO_ENV")) != "production" && cfg.Format != "json") {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "2006-01-02 15:04:05",
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("| %-5s |", i))
			},
			FormatMessage: func(i interface{}) string {
				return fmt.Sprintf("%-50s", i)
			},
			FormatFieldName: func(i interface{}) string {
				return fmt.Sprintf("%s:", i)
			},
		}
		logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(output).With().Timestamp().Logger()
	}

	logLevel, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	logger = logger.With().
		Str("service", "frameguard").
		Str("version", getVersion()).
		Logger()

	if cfg.Component != "" {
		logger = logger.With().Str("component", cfg.Component).Logger()
	}

	return logger
}

// Component returns a child logger tagged with a subsystem name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// WithRunID adds a diagnosis run id to the logger.
func WithRunID(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// WithStreamID adds a stream id to the logger.
func WithStreamID(logger zerolog.Logger, streamID string) zerolog.Logger {
	return logger.With().Str("stream_id", streamID).Logger()
}

// WithTaskID adds a scheduler task id to the logger.
func WithTaskID(logger zerolog.Logger, taskID string) zerolog.Logger {
	return logger.With().Str("task_id", taskID).Logger()
}

// WithContext adds any id values found on ctx to the logger.
func WithContext(logger zerolog.Logger, ctx context.Context) zerolog.Logger {
	contextLogger := logger

	if runID := ctx.Value(RunIDKey); runID != nil {
		contextLogger = contextLogger.With().Str("run_id", runID.(string)).Logger()
	}
	if streamID := ctx.Value(StreamIDKey); streamID != nil {
		contextLogger = contextLogger.With().Str("stream_id", streamID.(string)).Logger()
	}
	if taskID := ctx.Value(TaskIDKey); taskID != nil {
		contextLogger = contextLogger.With().Str("task_id", taskID.(string)).Logger()
	}

	return contextLogger
}

func getVersion() string {
	if version := os.Getenv("APP_VERSION"); version != "" {
		return version
	}
	return "development"
}
