package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/meetscribe/ms-engine/internal/capture"
	"github.com/meetscribe/ms-engine/internal/config"
	"github.com/meetscribe/ms-engine/internal/fallback"
	"github.com/meetscribe/ms-engine/internal/pipeline"
	"github.com/meetscribe/ms-engine/internal/storage"
	"github.com/meetscribe/ms-engine/internal/transcribe"
)

var version = "dev"

func main() {
	envFile := flag.String("env", "", "path to .env file (default .env)")
	userID := flag.String("user", "", "user ID recordings belong to (required)")
	file := flag.String("file", "", "audio file to record from")
	watchDir := flag.String("watch", "", "directory to watch for dropped recordings")
	gatewayURL := flag.String("gateway", "http://localhost:8080", "transcription gateway base URL")
	token := flag.String("token", "", "bearer token for the gateway")
	realtime := flag.Bool("realtime", false, "pace file replay at the capture timeslice interval")
	logLevel := flag.String("log-level", "", "log level (overrides LOG_LEVEL)")
	flag.Parse()

	early := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if *userID == "" {
		early.Fatal().Msg("-user is required")
	}
	if (*file == "") == (*watchDir == "") {
		early.Fatal().Msg("exactly one of -file or -watch is required")
	}

	cfg, err := config.LoadClient(config.Overrides{EnvFile: *envFile, LogLevel: *logLevel})
	if err != nil {
		early.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("ms-record starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.Storage, log.With().Str("component", "storage").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	orch := pipeline.NewOrchestrator(
		pipeline.NewUploader(store, log),
		pipeline.NewGatewayClient(*gatewayURL, *token, 45*time.Second, log),
		fallback.New(),
		&pipeline.LogNotifier{Log: log},
		log,
	)

	if *watchDir != "" {
		dw := pipeline.NewDropWatcher(orch, *watchDir, *userID, log)
		if err := dw.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("drop watcher failed")
		}
		return
	}

	recordFile(ctx, orch, *file, *userID, *realtime, log)
}

// recordFile replays one audio file through a capture session and
// drives the result through the pipeline.
func recordFile(ctx context.Context, orch *pipeline.Orchestrator, path, userID string, realtime bool, log zerolog.Logger) {
	dev := &capture.FileDevice{Path: path, Realtime: realtime}
	rec := capture.NewRecorder(capture.Options{
		Device:   dev,
		MaxBytes: transcribe.MaxAudioBytes,
		Events: capture.Events{
			SizeWarning: func(bytes, limit int64) {
				log.Warn().Int64("bytes", bytes).Int64("limit", limit).
					Msg("recording approaching size limit")
			},
			SizeExceeded: func(bytes, limit int64) {
				log.Error().Int64("bytes", bytes).Int64("limit", limit).
					Msg("recording stopped at size limit")
			},
		},
		Log: log,
	})

	if err := rec.Start(ctx); err != nil {
		res := orch.Run(ctx, userID, nil, err)
		if res.Err != nil {
			os.Exit(1)
		}
		return
	}

	// Wait for the file to finish replaying, or an interrupt.
	select {
	case <-rec.Done():
	case <-ctx.Done():
		log.Info().Msg("interrupted, finalizing recording")
	}

	blob, capErr := rec.Stop()
	res := orch.Run(ctx, userID, blob, capErr)

	if res.Transcription != "" {
		fmt.Println(res.Transcription)
		if res.Summary != "" {
			fmt.Println("\nSummary:", res.Summary)
		}
		for _, item := range res.ActionItems {
			fmt.Println("  -", item)
		}
	}
	if res.Err != nil && res.Transcription == "" {
		os.Exit(1)
	}
}
