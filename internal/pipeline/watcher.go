package pipeline

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/meetscribe/ms-engine/internal/capture"
)

// DropWatcher monitors a directory for finished recording files and
// runs each one through the orchestrator as if it had just been
// captured. It is the CLI's hands-free ingestion mode.
type DropWatcher struct {
	orch     *Orchestrator
	watchDir string
	userID   string
	log      zerolog.Logger

	watcher *fsnotify.Watcher

	// Debounce: coalesce rapid Create+Write events on the same file.
	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	filesProcessed atomic.Int64
	filesSkipped   atomic.Int64
}

func NewDropWatcher(orch *Orchestrator, watchDir, userID string, log zerolog.Logger) *DropWatcher {
	return &DropWatcher{
		orch:           orch,
		watchDir:       watchDir,
		userID:         userID,
		log:            log.With().Str("component", "watcher").Logger(),
		debounceTimers: make(map[string]*time.Timer),
	}
}

// Start begins watching. It blocks until ctx is cancelled.
func (dw *DropWatcher) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dw.watcher = w
	defer w.Close()

	if err := w.Add(dw.watchDir); err != nil {
		return err
	}
	dw.log.Info().Str("watch_dir", dw.watchDir).Msg("drop watcher started")

	for {
		select {
		case <-ctx.Done():
			dw.log.Info().
				Int64("files_processed", dw.filesProcessed.Load()).
				Int64("files_skipped", dw.filesSkipped.Load()).
				Msg("drop watcher stopped")
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}
			if !capture.IsAudioPath(event.Name) {
				dw.filesSkipped.Add(1)
				continue
			}
			dw.scheduleProcess(ctx, event.Name)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			dw.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// scheduleProcess debounces file processing by 500ms. This coalesces
// rapid Create+Write events and ensures the file is fully written
// before reading.
func (dw *DropWatcher) scheduleProcess(ctx context.Context, path string) {
	dw.debounceMu.Lock()
	defer dw.debounceMu.Unlock()

	if t, ok := dw.debounceTimers[path]; ok {
		t.Reset(500 * time.Millisecond)
		return
	}

	dw.debounceTimers[path] = time.AfterFunc(500*time.Millisecond, func() {
		dw.debounceMu.Lock()
		delete(dw.debounceTimers, path)
		dw.debounceMu.Unlock()

		dw.processFile(ctx, path)
	})
}

func (dw *DropWatcher) processFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		dw.log.Warn().Err(err).Str("path", path).Msg("failed to read recording file")
		return
	}
	if len(data) == 0 {
		dw.filesSkipped.Add(1)
		return
	}

	rec := &capture.Recording{
		Data:     data,
		MIMEType: capture.MIMEForPath(path),
	}
	res := dw.orch.Run(ctx, dw.userID, rec, nil)
	dw.filesProcessed.Add(1)

	dw.log.Info().
		Str("path", path).
		Bool("degraded", res.Degraded).
		Msg("dropped recording processed")
}
