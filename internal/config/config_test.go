package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set required env vars for all subtests
	cleanup := setEnvs(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/test",
		"WHISPER_URL":  "http://localhost:9000",
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.MediaDir != "./media" {
			t.Errorf("MediaDir = %q, want ./media", cfg.MediaDir)
		}
		if cfg.WhisperModel != "small" {
			t.Errorf("WhisperModel = %q, want small", cfg.WhisperModel)
		}
		if cfg.WhisperTimeout != 5*time.Minute {
			t.Errorf("WhisperTimeout = %v, want 5m", cfg.WhisperTimeout)
		}
		if cfg.TranslateTarget != "en" {
			t.Errorf("TranslateTarget = %q, want en", cfg.TranslateTarget)
		}
		if cfg.PlaybackTick != 150*time.Millisecond {
			t.Errorf("PlaybackTick = %v, want 150ms", cfg.PlaybackTick)
		}
		if cfg.SessionTTL != 2*time.Hour {
			t.Errorf("SessionTTL = %v, want 2h", cfg.SessionTTL)
		}
		if cfg.MQTTClientID != "scribesync" {
			t.Errorf("MQTTClientID = %q, want scribesync", cfg.MQTTClientID)
		}
		if cfg.WatchDir != "" {
			t.Errorf("WatchDir = %q, want empty", cfg.WatchDir)
		}
		if cfg.S3.Enabled() {
			t.Error("S3.Enabled() = true, want false by default")
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:     "nonexistent.env",
			HTTPAddr:    ":9090",
			LogLevel:    "debug",
			DatabaseURL: "postgres://override/db",
			WhisperURL:  "http://override:9000",
			MediaDir:    "/tmp/media",
			WatchDir:    "/tmp/drop",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.DatabaseURL != "postgres://override/db" {
			t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
		}
		if cfg.WhisperURL != "http://override:9000" {
			t.Errorf("WhisperURL = %q, want override", cfg.WhisperURL)
		}
		if cfg.MediaDir != "/tmp/media" {
			t.Errorf("MediaDir = %q, want /tmp/media", cfg.MediaDir)
		}
		if cfg.WatchDir != "/tmp/drop" {
			t.Errorf("WatchDir = %q, want /tmp/drop", cfg.WatchDir)
		}
	})

	t.Run("env_vars_read", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.DatabaseURL != "postgres://localhost/test" {
			t.Errorf("DatabaseURL = %q, want postgres://localhost/test", cfg.DatabaseURL)
		}
		if cfg.WhisperURL != "http://localhost:9000" {
			t.Errorf("WhisperURL = %q, want http://localhost:9000", cfg.WhisperURL)
		}
	})

	t.Run("s3_env_prefix", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{
			"S3_BUCKET":     "archive",
			"S3_ACCESS_KEY": "ak",
			"S3_SECRET_KEY": "sk",
		})
		defer cleanup()

		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.S3.Bucket != "archive" {
			t.Errorf("S3.Bucket = %q, want archive", cfg.S3.Bucket)
		}
		if !cfg.S3.Enabled() {
			t.Error("S3.Enabled() = false, want true")
		}
	})
}

func TestLoadMissingRequired(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"DATABASE_URL": "",
		"WHISPER_URL":  "",
	})
	defer cleanup()
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("WHISPER_URL")

	_, err := Load(Overrides{EnvFile: "nonexistent.env"})
	if err == nil {
		t.Error("expected error when required env vars are missing")
	}
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
