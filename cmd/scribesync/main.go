package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mhollis/scribesync/internal/api"
	"github.com/mhollis/scribesync/internal/config"
	"github.com/mhollis/scribesync/internal/database"
	"github.com/mhollis/scribesync/internal/export"
	"github.com/mhollis/scribesync/internal/ingest"
	"github.com/mhollis/scribesync/internal/metrics"
	"github.com/mhollis/scribesync/internal/mqttclient"
	"github.com/mhollis/scribesync/internal/session"
	"github.com/mhollis/scribesync/internal/storage"
	"github.com/mhollis/scribesync/internal/transcribe"
)

var version = "dev"

func main() {
	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "http listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (trace..error)")
	flag.StringVar(&overrides.DatabaseURL, "database-url", "", "postgres connection string")
	flag.StringVar(&overrides.WhisperURL, "whisper-url", "", "speech recognition service URL")
	flag.StringVar(&overrides.MediaDir, "media-dir", "", "media storage directory")
	flag.StringVar(&overrides.WatchDir, "watch-dir", "", "drop directory for batch transcription")
	flag.Parse()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("scribesync starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.DatabaseURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Media storage
	store, err := storage.New(cfg.S3, cfg.MediaDir, log.With().Str("component", "storage").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize media storage")
	}
	log.Info().Str("type", store.Type()).Str("dir", cfg.MediaDir).Msg("media storage ready")

	// Sessions and recognition
	reg := session.NewRegistry(cfg.PlaybackTick, log.With().Str("component", "sessions").Logger())
	provider := transcribe.NewWhisperClient(cfg.WhisperURL, cfg.WhisperModel, cfg.WhisperTimeout)
	runner := transcribe.NewRunner(transcribe.RunnerOptions{
		Provider:        provider,
		DB:              db,
		Timeout:         cfg.WhisperTimeout,
		TranslateTarget: cfg.TranslateTarget,
		Log:             log.With().Str("component", "runner").Logger(),
	})

	// Drop-dir batch pipeline (optional)
	var pool *transcribe.WorkerPool
	var watcher *ingest.Watcher
	if cfg.WatchDir != "" {
		pool = transcribe.NewWorkerPool(transcribe.WorkerPoolOptions{
			Provider:  provider,
			DB:        db,
			Timeout:   cfg.WhisperTimeout,
			Workers:   cfg.IngestWorkers,
			QueueSize: cfg.IngestQueue,
			Log:       log.With().Str("component", "batch").Logger(),
		})
		pool.Start()
		defer pool.Stop()

		watcher = ingest.NewWatcher(ingest.Options{
			WatchDir:    cfg.WatchDir,
			Pool:        pool,
			ScanOnStart: cfg.WatchScan,
			Log:         log,
		})
		if err := watcher.Start(ctx); err != nil {
			log.Fatal().Err(err).Str("watch_dir", cfg.WatchDir).Msg("failed to start drop-dir watcher")
		}
		defer watcher.Stop()
	}

	// Remote-player feed (optional)
	var mqtt *mqttclient.Client
	if cfg.MQTTBrokerURL != "" {
		mqtt, err = mqttclient.Connect(mqttclient.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			Resolve: func(sessionID string) func(float64) {
				metrics.MQTTMessagesTotal.Inc()
				s, ok := reg.Get(sessionID)
				if !ok {
					return nil
				}
				return func(t float64) {
					metrics.PlaybackEventsTotal.WithLabelValues("mqtt").Inc()
					s.Touch()
					s.Player().Sync(t)
				}
			},
			Log: log.With().Str("component", "mqtt").Logger(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
		defer mqtt.Close()
	}

	// Scrape-time gauges
	var queue metrics.QueueStats
	if pool != nil {
		queue = pool
	}
	prometheus.MustRegister(metrics.NewCollector(db.Pool, reg, queue))

	// Idle session pruning
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := reg.PruneIdle(cfg.SessionTTL); n > 0 {
					log.Info().Int("pruned", n).Msg("idle sessions removed")
				}
			}
		}
	}()

	// HTTP server
	srv := api.NewServer(cfg, api.Deps{
		DB:      db,
		Store:   store,
		Reg:     reg,
		Runner:  runner,
		Exports: export.NewRegistry(),
		MQTT:    mqtt,
		Watcher: watcher,
		Pool:    pool,
		Version: version,
	}, log.With().Str("component", "http").Logger())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("scribesync stopped")
}
