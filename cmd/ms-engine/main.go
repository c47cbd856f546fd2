package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/meetscribe/ms-engine/internal/analyze"
	"github.com/meetscribe/ms-engine/internal/api"
	"github.com/meetscribe/ms-engine/internal/config"
	"github.com/meetscribe/ms-engine/internal/database"
	"github.com/meetscribe/ms-engine/internal/events"
	"github.com/meetscribe/ms-engine/internal/gateway"
	"github.com/meetscribe/ms-engine/internal/storage"
	"github.com/meetscribe/ms-engine/internal/transcribe"
)

var version = "dev"

func main() {
	startTime := time.Now()

	envFile := flag.String("env", "", "path to .env file (default .env)")
	httpAddr := flag.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	logLevel := flag.String("log-level", "", "log level (overrides LOG_LEVEL)")
	databaseURL := flag.String("db", "", "database URL (overrides DATABASE_URL)")
	flag.Parse()

	// Config
	cfg, err := config.Load(config.Overrides{
		EnvFile:     *envFile,
		HTTPAddr:    *httpAddr,
		LogLevel:    *logLevel,
		DatabaseURL: *databaseURL,
	})
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("ms-engine starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.DatabaseURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	// Object store
	storeLog := log.With().Str("component", "storage").Logger()
	store, err := storage.New(cfg.Storage, storeLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	// Transcription provider
	provider := transcribe.NewWhisperClient(cfg.WhisperURL, cfg.WhisperAPIKey, cfg.WhisperModel, cfg.WhisperTimeout)

	// Analyzers: LLM when configured, heuristic as the degradation path
	var analyzer analyze.Analyzer
	if cfg.OpenAIAPIKey != "" {
		analyzer = analyze.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel,
			log.With().Str("component", "analyze").Logger())
	}

	// Event bus for SSE subscribers, 60s worth of transcription events
	bus := events.NewEventBus(256)

	gw := gateway.New(gateway.Options{
		Store:           store,
		Provider:        provider,
		Analyzer:        analyzer,
		Heuristic:       analyze.HeuristicAnalyzer{},
		DB:              db,
		Bus:             bus,
		FetchTimeout:    cfg.FetchTimeout,
		ProviderTimeout: cfg.WhisperTimeout,
		Log:             log,
	})

	// HTTP server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, api.Deps{
		DB:       db,
		Store:    store,
		Gateway:  gw,
		Bus:      bus,
		Provider: provider.Name(),
		Version:  version,
	}, startTime, httpLog)

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

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("ms-engine stopped")
}
