package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mhollis/scribesync/internal/storage"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	WhisperURL      string        `env:"WHISPER_URL,required"`
	WhisperModel    string        `env:"WHISPER_MODEL" envDefault:"small"`
	WhisperTimeout  time.Duration `env:"WHISPER_TIMEOUT" envDefault:"5m"`
	TranslateTarget string        `env:"TRANSLATE_TARGET" envDefault:"en"`

	MediaDir string `env:"MEDIA_DIR" envDefault:"./media"`

	// WatchDir enables the drop-dir batch pipeline when set.
	WatchDir      string `env:"WATCH_DIR"`
	WatchScan     bool   `env:"WATCH_SCAN_ON_START" envDefault:"false"`
	IngestWorkers int    `env:"INGEST_WORKERS" envDefault:"2"`
	IngestQueue   int    `env:"INGEST_QUEUE" envDefault:"64"`

	// MQTTBrokerURL enables the remote-player feed when set.
	MQTTBrokerURL string `env:"MQTT_BROKER_URL"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"scribesync"`
	MQTTUsername  string `env:"MQTT_USERNAME"`
	MQTTPassword  string `env:"MQTT_PASSWORD"`

	S3 storage.S3Config `envPrefix:"S3_"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"0"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	PlaybackTick time.Duration `env:"PLAYBACK_TICK" envDefault:"150ms"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
	WhisperURL  string
	MediaDir    string
	WatchDir    string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.WhisperURL != "" {
		cfg.WhisperURL = overrides.WhisperURL
	}
	if overrides.MediaDir != "" {
		cfg.MediaDir = overrides.MediaDir
	}
	if overrides.WatchDir != "" {
		cfg.WatchDir = overrides.WatchDir
	}

	return cfg, nil
}
