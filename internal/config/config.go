package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	LogLevel string `json:"log_level"`

	// Detection defaults
	DefaultProfile     string `json:"default_profile"` // strict | normal | loose
	DefaultLevel       string `json:"default_level"`   // fast | standard | deep
	MaxWorkers         int    `json:"max_workers"`
	PipelineDeadlineMS int    `json:"pipeline_deadline_ms"`
	DetectorDeadlineMS int    `json:"detector_deadline_ms"`

	// Media tooling
	FFmpegPath  string `json:"ffmpeg_path"`
	FFprobePath string `json:"ffprobe_path"`
	TempDir     string `json:"temp_dir"`

	// Video sampling defaults
	SampleStrategy  string  `json:"sample_strategy"` // interval | scene | hybrid
	SampleIntervalS float64 `json:"sample_interval_seconds"`
	MaxFrames       int     `json:"max_frames"`
	FrameBufferSize int     `json:"frame_buffer_size"`

	// Stream defaults
	StreamDetectionIntervalS int `json:"stream_detection_interval_seconds"`
	StreamRingSize           int `json:"stream_ring_size"`
	StreamResultRingSize     int `json:"stream_result_ring_size"`
	StreamGraceSeconds       int `json:"stream_grace_seconds"`
	StreamMaxConsecutiveErrs int `json:"stream_max_consecutive_errors"`
	StreamBackoffBaseMS      int `json:"stream_backoff_base_ms"`
	StreamBackoffCapMS       int `json:"stream_backoff_cap_ms"`

	// Scheduler / persistence
	StoreRoot            string `json:"store_root"` // {root}/tasks, {root}/executions
	ProfilesPath         string `json:"profiles_path"`
	SchedulerWorkerCount int    `json:"scheduler_worker_count"`
	ExecutionRetention   int    `json:"execution_retention"`

	// Storage provider defaults for mediasource (remote input fetch)
	StorageProvider  string `json:"storage_provider"`
	StorageBucket    string `json:"storage_bucket"`
	StorageRegion    string `json:"storage_region"`
	StorageAccessKey string `json:"storage_access_key"`
	StorageSecretKey string `json:"storage_secret_key"`
	StorageEndpoint  string `json:"storage_endpoint"`
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		DefaultProfile:           getEnv("DEFAULT_PROFILE", "normal"),
		DefaultLevel:             getEnv("DEFAULT_LEVEL", "standard"),
		MaxWorkers:               getEnvAsInt("MAX_WORKERS", 0), // 0 => runtime.NumCPU()
		PipelineDeadlineMS:       getEnvAsInt("PIPELINE_DEADLINE_MS", 5000),
		DetectorDeadlineMS:       getEnvAsInt("DETECTOR_DEADLINE_MS", 1500),
		FFmpegPath:               getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:              getEnv("FFPROBE_PATH", "ffprobe"),
		TempDir:                  getEnv("TEMP_DIR", "/tmp/frameguard"),
		SampleStrategy:           getEnv("SAMPLE_STRATEGY", "hybrid"),
		SampleIntervalS:          getEnvAsFloat("SAMPLE_INTERVAL_SECONDS", 1.0),
		MaxFrames:                getEnvAsInt("MAX_FRAMES", 120),
		FrameBufferSize:          getEnvAsInt("FRAME_BUFFER_SIZE", 0), // 0 => max(8, 2*workers)
		StreamDetectionIntervalS: getEnvAsInt("STREAM_DETECTION_INTERVAL_SECONDS", 5),
		StreamRingSize:           getEnvAsInt("STREAM_RING_SIZE", 32),
		StreamResultRingSize:     getEnvAsInt("STREAM_RESULT_RING_SIZE", 256),
		StreamGraceSeconds:       getEnvAsInt("STREAM_GRACE_SECONDS", 5),
		StreamMaxConsecutiveErrs: getEnvAsInt("STREAM_MAX_CONSECUTIVE_ERRORS", 10),
		StreamBackoffBaseMS:      getEnvAsInt("STREAM_BACKOFF_BASE_MS", 1000),
		StreamBackoffCapMS:       getEnvAsInt("STREAM_BACKOFF_CAP_MS", 30000),
		StoreRoot:                getEnv("STORE_ROOT", "./data"),
		ProfilesPath:             getEnv("PROFILES_PATH", "./data/profiles.yaml"),
		SchedulerWorkerCount:     getEnvAsInt("SCHEDULER_WORKER_COUNT", 0), // 0 => max(2, NumCPU())
		ExecutionRetention:       getEnvAsInt("EXECUTION_RETENTION", 1000),
		StorageProvider:          getEnv("STORAGE_PROVIDER", "local"),
		StorageBucket:            getEnv("STORAGE_BUCKET", "./storage"),
		StorageRegion:            getEnv("STORAGE_REGION", "us-east-1"),
		StorageAccessKey:         getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey:         getEnv("STORAGE_SECRET_KEY", ""),
		StorageEndpoint:          getEnv("STORAGE_ENDPOINT", ""),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates critical configuration values, collecting every
// violation before returning rather than failing on the first one.
func validateConfig(cfg *Config) error {
	var errs []string

	validProfiles := map[string]bool{"strict": true, "normal": true, "loose": true}
	if !validProfiles[cfg.DefaultProfile] {
		errs = append(errs, "DEFAULT_PROFILE must be one of: strict, normal, loose")
	}

	validLevels := map[string]bool{"fast": true, "standard": true, "deep": true}
	if !validLevels[cfg.DefaultLevel] {
		errs = append(errs, "DEFAULT_LEVEL must be one of: fast, standard, deep")
	}

	validStrategies := map[string]bool{"interval": true, "scene": true, "hybrid": true}
	if !validStrategies[cfg.SampleStrategy] {
		errs = append(errs, "SAMPLE_STRATEGY must be one of: interval, scene, hybrid")
	}

	if cfg.SampleIntervalS < 0.1 {
		errs = append(errs, "SAMPLE_INTERVAL_SECONDS must be >= 0.1")
	}
	if cfg.MaxFrames <= 0 {
		errs = append(errs, "MAX_FRAMES must be greater than 0")
	}
	if cfg.StreamDetectionIntervalS < 1 {
		errs = append(errs, "STREAM_DETECTION_INTERVAL_SECONDS must be >= 1")
	}
	if cfg.StreamRingSize <= 0 {
		errs = append(errs, "STREAM_RING_SIZE must be greater than 0")
	}
	if cfg.StreamResultRingSize <= 0 {
		errs = append(errs, "STREAM_RESULT_RING_SIZE must be greater than 0")
	}
	if cfg.StreamGraceSeconds < 0 {
		errs = append(errs, "STREAM_GRACE_SECONDS must not be negative")
	}
	if cfg.StreamMaxConsecutiveErrs <= 0 {
		errs = append(errs, "STREAM_MAX_CONSECUTIVE_ERRORS must be greater than 0")
	}
	if cfg.StreamBackoffBaseMS <= 0 {
		errs = append(errs, "STREAM_BACKOFF_BASE_MS must be greater than 0")
	}
	if cfg.StreamBackoffCapMS < cfg.StreamBackoffBaseMS {
		errs = append(errs, "STREAM_BACKOFF_CAP_MS must be >= STREAM_BACKOFF_BASE_MS")
	}

	if cfg.FFmpegPath == "" {
		errs = append(errs, "FFMPEG_PATH is required")
	}
	if cfg.FFprobePath == "" {
		errs = append(errs, "FFPROBE_PATH is required")
	}

	if cfg.StoreRoot == "" {
		errs = append(errs, "STORE_ROOT is required")
	} else if err := validateDirectory(cfg.StoreRoot); err != nil {
		errs = append(errs, fmt.Sprintf("STORE_ROOT validation failed: %v", err))
	}

	if cfg.ProfilesPath == "" {
		errs = append(errs, "PROFILES_PATH is required")
	}

	if cfg.ExecutionRetention <= 0 {
		errs = append(errs, "EXECUTION_RETENTION must be greater than 0")
	}

	validLogLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	isValidLogLevel := false
	for _, level := range validLogLevels {
		if cfg.LogLevel == level {
			isValidLogLevel = true
			break
		}
	}
	if !isValidLogLevel {
		errs = append(errs, "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}

	switch cfg.StorageProvider {
	case "local":
	case "s3", "gcs", "azure":
		if cfg.StorageBucket == "" {
			errs = append(errs, fmt.Sprintf("STORAGE_BUCKET is required when using %s storage", cfg.StorageProvider))
		}
	default:
		errs = append(errs, "STORAGE_PROVIDER must be one of: local, s3, gcs, azure")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// validateDirectory checks if a directory exists or can be created
func validateDirectory(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	if stat, err := os.Stat(absDir); err == nil {
		if !stat.IsDir() {
			return fmt.Errorf("path exists but is not a directory: %s", absDir)
		}
		testFile := filepath.Join(absDir, ".write_test")
		if f, err := os.Create(testFile); err != nil {
			return fmt.Errorf("directory is not writable: %s", absDir)
		} else {
			f.Close()
			os.Remove(testFile)
		}
		return nil
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(absDir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	} else {
		return fmt.Errorf("failed to check directory: %w", err)
	}
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt gets an environment variable as integer with a fallback value
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvAsFloat gets an environment variable as float64 with a fallback value
func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}

// getEnvAsBool gets an environment variable as boolean with a fallback value
func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvAsStringSlice gets an environment variable as string slice with a fallback value
func getEnvAsStringSlice(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return fallback
}
