package config

import (
	"os"
	"testing"
)

// setTestEnv sets environment variables for a test and returns a cleanup func.
func setTestEnv(t *testing.T, envVars map[string]string) func() {
	t.Helper()
	originalValues := make(map[string]string)

	for key, value := range envVars {
		originalValues[key] = os.Getenv(key)
		os.Setenv(key, value)
	}

	return func() {
		for key := range envVars {
			if original, exists := originalValues[key]; exists && original != "" {
				os.Setenv(key, original)
			} else {
				os.Unsetenv(key)
			}
		}
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		expected     string
	}{
		{
			name:         "returns default when env not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default_value",
			envValue:     "",
			expected:     "default_value",
		},
		{
			name:         "returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default_value",
			envValue:     "env_value",
			expected:     "env_value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				cleanup := setTestEnv(t, map[string]string{tt.key: tt.envValue})
				defer cleanup()
			} else {
				os.Unsetenv(tt.key)
			}

			result := getEnv(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getEnv(%s, %s) = %s; want %s", tt.key, tt.defaultValue, result, tt.expected)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		expected     int
	}{
		{
			name:         "returns default when env not set",
			key:          "TEST_INT_UNSET",
			defaultValue: 100,
			envValue:     "",
			expected:     100,
		},
		{
			name:         "returns parsed int when valid",
			key:          "TEST_INT_VALID",
			defaultValue: 100,
			envValue:     "42",
			expected:     42,
		},
		{
			name:         "returns default when invalid int",
			key:          "TEST_INT_INVALID",
			defaultValue: 100,
			envValue:     "not_a_number",
			expected:     100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				cleanup := setTestEnv(t, map[string]string{tt.key: tt.envValue})
				defer cleanup()
			} else {
				os.Unsetenv(tt.key)
			}

			result := getEnvAsInt(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getEnvAsInt(%s, %d) = %d; want %d", tt.key, tt.defaultValue, result, tt.expected)
			}
		})
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue float64
		envValue     string
		expected     float64
	}{
		{
			name:         "returns default when env not set",
			key:          "TEST_FLOAT_UNSET",
			defaultValue: 1.5,
			envValue:     "",
			expected:     1.5,
		},
		{
			name:         "returns parsed float when valid",
			key:          "TEST_FLOAT_VALID",
			defaultValue: 1.5,
			envValue:     "0.25",
			expected:     0.25,
		},
		{
			name:         "returns default when invalid float",
			key:          "TEST_FLOAT_INVALID",
			defaultValue: 1.5,
			envValue:     "not_a_float",
			expected:     1.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				cleanup := setTestEnv(t, map[string]string{tt.key: tt.envValue})
				defer cleanup()
			} else {
				os.Unsetenv(tt.key)
			}

			result := getEnvAsFloat(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getEnvAsFloat(%s, %v) = %v; want %v", tt.key, tt.defaultValue, result, tt.expected)
			}
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		expected     bool
	}{
		{
			name:         "returns default when env not set",
			key:          "TEST_BOOL_UNSET",
			defaultValue: true,
			envValue:     "",
			expected:     true,
		},
		{
			name:         "returns true for 'true'",
			key:          "TEST_BOOL_TRUE",
			defaultValue: false,
			envValue:     "true",
			expected:     true,
		},
		{
			name:         "returns true for '1'",
			key:          "TEST_BOOL_ONE",
			defaultValue: false,
			envValue:     "1",
			expected:     true,
		},
		{
			name:         "returns false for 'false'",
			key:          "TEST_BOOL_FALSE",
			defaultValue: true,
			envValue:     "false",
			expected:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				cleanup := setTestEnv(t, map[string]string{tt.key: tt.envValue})
				defer cleanup()
			} else {
				os.Unsetenv(tt.key)
			}

			result := getEnvAsBool(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getEnvAsBool(%s, %v) = %v; want %v", tt.key, tt.defaultValue, result, tt.expected)
			}
		})
	}
}

func TestGetEnvAsStringSlice(t *testing.T) {
	cleanup := setTestEnv(t, map[string]string{"TEST_SLICE": "a,b,c"})
	defer cleanup()

	result := getEnvAsStringSlice("TEST_SLICE", []string{"default"})
	if len(result) != 3 || result[0] != "a" || result[1] != "b" || result[2] != "c" {
		t.Errorf("getEnvAsStringSlice returned %v; want [a b c]", result)
	}

	os.Unsetenv("TEST_SLICE_MISSING")
	fallback := getEnvAsStringSlice("TEST_SLICE_MISSING", []string{"default"})
	if len(fallback) != 1 || fallback[0] != "default" {
		t.Errorf("getEnvAsStringSlice fallback = %v; want [default]", fallback)
	}
}

// validConfig builds a config that satisfies validateConfig, for tests that
// mutate a single field to exercise one validation rule.
func validConfig() *Config {
	return &Config{
		LogLevel:                 "info",
		DefaultProfile:           "normal",
		DefaultLevel:             "standard",
		MaxWorkers:               4,
		PipelineDeadlineMS:       5000,
		DetectorDeadlineMS:       1500,
		FFmpegPath:               "ffmpeg",
		FFprobePath:              "ffprobe",
		TempDir:                  "/tmp/frameguard-test",
		SampleStrategy:           "hybrid",
		SampleIntervalS:          1.0,
		MaxFrames:                120,
		FrameBufferSize:          16,
		StreamDetectionIntervalS: 5,
		StreamRingSize:           32,
		StreamResultRingSize:     256,
		StreamGraceSeconds:       5,
		StreamMaxConsecutiveErrs: 10,
		StreamBackoffBaseMS:      1000,
		StreamBackoffCapMS:       30000,
		StoreRoot:                tempTestDir(),
		ProfilesPath:             "./profiles.yaml",
		SchedulerWorkerCount:     2,
		ExecutionRetention:       1000,
		StorageProvider:          "local",
	}
}

// tempTestDir returns a writable scratch directory for tests that need
// validateDirectory to succeed without touching the working directory.
func tempTestDir() string {
	dir := os.TempDir() + "/frameguard-config-test"
	os.MkdirAll(dir, 0755)
	return dir
}

func TestValidateConfig_DefaultProfile(t *testing.T) {
	tests := []struct {
		name        string
		profile     string
		expectError bool
	}{
		{"strict passes", "strict", false},
		{"normal passes", "normal", false},
		{"loose passes", "loose", false},
		{"unknown fails", "aggressive", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.DefaultProfile = tt.profile

			err := validateConfig(cfg)
			if tt.expectError && err == nil {
				t.Errorf("expected error for profile %q, got nil", tt.profile)
			}
			if !tt.expectError && err != nil {
				t.Errorf("expected no error for profile %q, got %v", tt.profile, err)
			}
		})
	}
}

func TestValidateConfig_DefaultLevel(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		expectError bool
	}{
		{"fast passes", "fast", false},
		{"standard passes", "standard", false},
		{"deep passes", "deep", false},
		{"unknown fails", "thorough", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.DefaultLevel = tt.level

			err := validateConfig(cfg)
			if tt.expectError && err == nil {
				t.Errorf("expected error for level %q, got nil", tt.level)
			}
			if !tt.expectError && err != nil {
				t.Errorf("expected no error for level %q, got %v", tt.level, err)
			}
		})
	}
}

func TestValidateConfig_SampleStrategy(t *testing.T) {
	tests := []struct {
		name        string
		strategy    string
		expectError bool
	}{
		{"interval passes", "interval", false},
		{"scene passes", "scene", false},
		{"hybrid passes", "hybrid", false},
		{"unknown fails", "random", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.SampleStrategy = tt.strategy

			err := validateConfig(cfg)
			if tt.expectError && err == nil {
				t.Errorf("expected error for strategy %q, got nil", tt.strategy)
			}
			if !tt.expectError && err != nil {
				t.Errorf("expected no error for strategy %q, got %v", tt.strategy, err)
			}
		})
	}
}

func TestValidateConfig_BackoffBounds(t *testing.T) {
	cfg := validConfig()
	cfg.StreamBackoffBaseMS = 5000
	cfg.StreamBackoffCapMS = 1000 // cap below base

	if err := validateConfig(cfg); err == nil {
		t.Error("expected error when backoff cap is below base, got nil")
	}
}

func TestValidateConfig_LogLevel(t *testing.T) {
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}

	for _, level := range validLevels {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = level

			if err := validateConfig(cfg); err != nil {
				t.Errorf("expected no error for log level %s, got %v", level, err)
			}
		})
	}

	t.Run("invalid_log_level", func(t *testing.T) {
		cfg := validConfig()
		cfg.LogLevel = "invalid"

		if err := validateConfig(cfg); err == nil {
			t.Error("expected error for invalid log level, got nil")
		}
	})
}

func TestValidateConfig_StorageProvider(t *testing.T) {
	tests := []struct {
		name        string
		provider    string
		bucket      string
		expectError bool
	}{
		{"local needs no bucket", "local", "", false},
		{"s3 requires bucket", "s3", "", true},
		{"s3 with bucket passes", "s3", "my-bucket", false},
		{"gcs requires bucket", "gcs", "", true},
		{"azure requires bucket", "azure", "", true},
		{"unknown provider fails", "ftp", "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.StorageProvider = tt.provider
			cfg.StorageBucket = tt.bucket

			err := validateConfig(cfg)
			if tt.expectError && err == nil {
				t.Errorf("expected error for provider %q bucket %q, got nil", tt.provider, tt.bucket)
			}
			if !tt.expectError && err != nil {
				t.Errorf("expected no error for provider %q bucket %q, got %v", tt.provider, tt.bucket, err)
			}
		})
	}
}

func TestValidateConfig_RequiredPaths(t *testing.T) {
	t.Run("missing ffmpeg path fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.FFmpegPath = ""
		if err := validateConfig(cfg); err == nil {
			t.Error("expected error for empty FFmpegPath, got nil")
		}
	})

	t.Run("missing ffprobe path fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.FFprobePath = ""
		if err := validateConfig(cfg); err == nil {
			t.Error("expected error for empty FFprobePath, got nil")
		}
	})

	t.Run("missing profiles path fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.ProfilesPath = ""
		if err := validateConfig(cfg); err == nil {
			t.Error("expected error for empty ProfilesPath, got nil")
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	// Clear anything that might have leaked from other tests in this package.
	for _, key := range []string{
		"LOG_LEVEL", "DEFAULT_PROFILE", "DEFAULT_LEVEL", "SAMPLE_STRATEGY",
		"STORAGE_PROVIDER", "STORE_ROOT",
	} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no env set returned error: %v", err)
	}

	if cfg.DefaultProfile != "normal" {
		t.Errorf("DefaultProfile = %q; want normal", cfg.DefaultProfile)
	}
	if cfg.DefaultLevel != "standard" {
		t.Errorf("DefaultLevel = %q; want standard", cfg.DefaultLevel)
	}
	if cfg.SampleStrategy != "hybrid" {
		t.Errorf("SampleStrategy = %q; want hybrid", cfg.SampleStrategy)
	}
	if cfg.MaxFrames != 120 {
		t.Errorf("MaxFrames = %d; want 120", cfg.MaxFrames)
	}

	os.RemoveAll(cfg.StoreRoot)
}
