// Package gateway implements the process-audio endpoint: it fetches a
// recording, runs it through the speech-to-text provider, optionally
// enriches the result with analysis, and persists the transcript.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meetscribe/ms-engine/internal/analyze"
	"github.com/meetscribe/ms-engine/internal/database"
	"github.com/meetscribe/ms-engine/internal/events"
	"github.com/meetscribe/ms-engine/internal/metrics"
	"github.com/meetscribe/ms-engine/internal/storage"
	"github.com/meetscribe/ms-engine/internal/transcribe"
)

// ProcessRequest is the body of POST /api/v1/process-audio.
type ProcessRequest struct {
	AudioURL string `json:"audioUrl"`
	FileName string `json:"fileName"`
	UserID   string `json:"userId"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// ProcessResponse is always returned as well-formed JSON, success or not.
type ProcessResponse struct {
	Transcription string   `json:"transcription,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	ActionItems   []string `json:"actionItems,omitempty"`
	Error         string   `json:"error,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Validate checks the required request fields.
func (r *ProcessRequest) Validate() error {
	var missing []string
	if r.AudioURL == "" {
		missing = append(missing, "audioUrl")
	}
	if r.FileName == "" {
		missing = append(missing, "fileName")
	}
	if r.UserID == "" {
		missing = append(missing, "userId")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if r.FileSize > transcribe.MaxAudioBytes {
		return fmt.Errorf("fileSize %d exceeds limit of %d bytes", r.FileSize, transcribe.MaxAudioBytes)
	}
	return nil
}

// TranscriptInserter persists completed transcripts. *database.DB
// satisfies it.
type TranscriptInserter interface {
	InsertTranscription(ctx context.Context, row *database.TranscriptionRow) (uuid.UUID, error)
}

// Options configures a Gateway. Analyzer, DB and Bus are optional; when
// absent the corresponding stage is skipped.
type Options struct {
	Store           storage.ObjectStore
	Provider        transcribe.Provider
	Analyzer        analyze.Analyzer
	Heuristic       analyze.Analyzer
	DB              TranscriptInserter
	Bus             *events.EventBus
	FetchTimeout    time.Duration
	ProviderTimeout time.Duration
	Log             zerolog.Logger
}

// Gateway orchestrates a single process-audio request.
type Gateway struct {
	store           storage.ObjectStore
	provider        transcribe.Provider
	analyzer        analyze.Analyzer
	heuristic       analyze.Analyzer
	db              TranscriptInserter
	bus             *events.EventBus
	fetch           *http.Client
	fetchTimeout    time.Duration
	providerTimeout time.Duration
	log             zerolog.Logger
}

// New creates a gateway. Provider and Store are required.
func New(opts Options) *Gateway {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 20 * time.Second
	}
	return &Gateway{
		store:           opts.Store,
		provider:        opts.Provider,
		analyzer:        opts.Analyzer,
		heuristic:       opts.Heuristic,
		db:              opts.DB,
		bus:             opts.Bus,
		fetch:           &http.Client{Timeout: opts.FetchTimeout},
		fetchTimeout:    opts.FetchTimeout,
		providerTimeout: opts.ProviderTimeout,
		log:             opts.Log.With().Str("component", "gateway").Logger(),
	}
}

// ProcessError carries an HTTP status alongside the failure so the
// handler can always render a well-formed JSON body.
type ProcessError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProcessError) Unwrap() error { return e.Err }

func processErr(status int, code, msg string, err error) *ProcessError {
	return &ProcessError{Status: status, Code: code, Message: msg, Err: err}
}

// Process runs the full pipeline for one request. On success the
// response carries the transcript plus any analysis that succeeded;
// analysis and persistence failures degrade the result but never fail
// the request.
func (g *Gateway) Process(ctx context.Context, req *ProcessRequest) (*ProcessResponse, *ProcessError) {
	log := g.log.With().Str("user_id", req.UserID).Str("file", req.FileName).Logger()

	if err := req.Validate(); err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("invalid").Inc()
		return nil, processErr(http.StatusBadRequest, "validation_failed", err.Error(), nil)
	}

	g.publish(events.EventData{
		Type:    events.TypeTranscriptionStarted,
		UserID:  req.UserID,
		Payload: map[string]string{"fileName": req.FileName},
	})

	audio, err := g.fetchAudio(ctx, req.AudioURL)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("fetch_error").Inc()
		g.publishFailed(req.UserID, "fetch", err)
		return nil, processErr(http.StatusBadRequest, "audio_fetch_failed", "failed to fetch audio", err)
	}
	if len(audio) == 0 {
		metrics.TranscriptionsTotal.WithLabelValues("fetch_error").Inc()
		g.publishFailed(req.UserID, "fetch", errors.New("empty audio"))
		return nil, processErr(http.StatusBadRequest, "audio_fetch_failed", "fetched audio is empty", nil)
	}
	if len(audio) > transcribe.MaxAudioBytes {
		metrics.TranscriptionsTotal.WithLabelValues("too_large").Inc()
		g.publishFailed(req.UserID, "fetch", errors.New("audio too large"))
		return nil, processErr(http.StatusRequestEntityTooLarge, "audio_too_large",
			fmt.Sprintf("audio exceeds limit of %d bytes", transcribe.MaxAudioBytes), nil)
	}
	metrics.AudioFetchBytes.Observe(float64(len(audio)))

	fileName := transcribe.NormalizeFilename(req.FileName, audio)
	if fileName != req.FileName {
		log.Debug().Str("normalized", fileName).Msg("filename extension rewritten from content sniff")
	}

	provCtx, cancel := context.WithTimeout(ctx, g.providerTimeout)
	result, err := g.provider.Transcribe(provCtx, fileName, audio, transcribe.TranscribeOpts{})
	cancel()
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("provider_error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(g.provider.Name()).Inc()
		log.Error().Err(err).Str("provider", g.provider.Name()).Msg("transcription failed")
		g.publishFailed(req.UserID, "provider", err)
		return nil, processErr(http.StatusBadGateway, "transcription_failed", "transcription provider failed", err)
	}

	resp := &ProcessResponse{Transcription: result.Text}

	if summary, items, ok := g.analyzeTranscript(ctx, result.Text, log); ok {
		resp.Summary = summary
		resp.ActionItems = items
	}

	g.persist(ctx, req, result, resp, log)

	metrics.TranscriptionsTotal.WithLabelValues("ok").Inc()
	g.publish(events.EventData{
		Type:   events.TypeTranscriptionCompleted,
		UserID: req.UserID,
		Payload: map[string]any{
			"fileName": req.FileName,
			"chars":    len(result.Text),
		},
	})
	return resp, nil
}

// fetchAudio retrieves the recording bytes. store:// URLs resolve
// through the object store; anything else is fetched over HTTP with the
// configured timeout.
func (g *Gateway) fetchAudio(ctx context.Context, audioURL string) ([]byte, error) {
	if key, ok := storage.StoreKey(audioURL); ok {
		if g.store == nil {
			return nil, errors.New("no object store configured for store:// URL")
		}
		rc, err := g.store.Open(ctx, key)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, transcribe.MaxAudioBytes+1))
	}

	if !strings.HasPrefix(audioURL, "http://") && !strings.HasPrefix(audioURL, "https://") {
		return nil, fmt.Errorf("unsupported audio URL scheme: %s", audioURL)
	}

	ctx, cancel := context.WithTimeout(ctx, g.fetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.fetch.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio fetch returned HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, transcribe.MaxAudioBytes+1))
}

// analyzeTranscript runs the configured analyzer and degrades to the
// heuristic one on failure. Analysis never fails the request.
func (g *Gateway) analyzeTranscript(ctx context.Context, transcript string, log zerolog.Logger) (string, []string, bool) {
	if g.analyzer != nil {
		res, err := g.analyzer.Analyze(ctx, transcript)
		if err == nil {
			return res.Summary, res.ActionItems, true
		}
		log.Warn().Err(err).Msg("analysis failed, degrading to heuristic")
	}
	if g.heuristic != nil {
		res, err := g.heuristic.Analyze(ctx, transcript)
		if err == nil {
			return res.Summary, res.ActionItems, true
		}
		log.Warn().Err(err).Msg("heuristic analysis failed")
	}
	return "", nil, false
}

// persist stores the transcript best-effort. A database failure is
// logged and surfaced in the response message only.
func (g *Gateway) persist(ctx context.Context, req *ProcessRequest, result *transcribe.Response, resp *ProcessResponse, log zerolog.Logger) {
	if g.db == nil {
		return
	}

	row := &database.TranscriptionRow{
		UserID:      req.UserID,
		Title:       database.TitleForDate(time.Now()),
		Content:     resp.Transcription,
		ActionItems: resp.ActionItems,
		Source:      "provider",
		Model:       g.provider.Model(),
		DurationSec: result.Duration,
	}
	if resp.Summary != "" {
		row.Summary = &resp.Summary
	}

	if _, err := g.db.InsertTranscription(ctx, row); err != nil {
		log.Error().Err(err).Msg("failed to persist transcription")
		resp.Message = "transcription succeeded but could not be saved"
	}
}

func (g *Gateway) publish(e events.EventData) {
	if g.bus == nil {
		return
	}
	g.bus.Publish(e)
	metrics.SSEEventsPublishedTotal.Inc()
}

func (g *Gateway) publishFailed(userID, subType string, err error) {
	g.publish(events.EventData{
		Type:    events.TypeTranscriptionFailed,
		SubType: subType,
		UserID:  userID,
		Payload: map[string]string{"error": err.Error()},
	})
}
