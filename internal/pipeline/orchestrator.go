package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/meetscribe/ms-engine/internal/capture"
	"github.com/meetscribe/ms-engine/internal/fallback"
	"github.com/meetscribe/ms-engine/internal/gateway"
	"github.com/meetscribe/ms-engine/internal/metrics"
)

// Result is the single terminal outcome of a recording session. When
// Degraded is set the transcription is synthetic and Category explains
// the failure; when Err is set without a transcription the session
// ended before any audio could be processed.
type Result struct {
	Transcription string
	Summary       string
	ActionItems   []string
	Degraded      bool
	Category      Category
	Err           error
	Upload        *UploadResult
}

// Notifier receives exactly one call per terminal session outcome.
type Notifier interface {
	Notify(res *Result)
}

// Orchestrator sequences upload, gateway call, and delivery for one
// finished recording.
type Orchestrator struct {
	uploader *Uploader
	client   *GatewayClient
	gen      *fallback.Generator
	notifier Notifier
	log      zerolog.Logger
}

func NewOrchestrator(uploader *Uploader, client *GatewayClient, gen *fallback.Generator, notifier Notifier, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		uploader: uploader,
		client:   client,
		gen:      gen,
		notifier: notifier,
		log:      log.With().Str("component", "orchestrator").Logger(),
	}
}

// Run takes the capture outcome and drives it to a terminal result.
// Invariants: the notifier fires exactly once, and every delivered
// transcript is non-empty — real when the pipeline succeeds, synthetic
// otherwise. Only permission denial and the size cap are terminal
// without a fallback; a capture error with no audio at all counts as
// permission-equivalent.
func (o *Orchestrator) Run(ctx context.Context, userID string, rec *capture.Recording, capErr error) *Result {
	var once sync.Once
	deliver := func(res *Result) *Result {
		once.Do(func() {
			if o.notifier != nil {
				o.notifier.Notify(res)
			}
		})
		return res
	}

	if capErr != nil {
		if errors.Is(capErr, capture.ErrPermissionDenied) ||
			errors.Is(capErr, capture.ErrSizeLimitExceeded) {
			return deliver(&Result{Err: capErr, Category: Classify(capErr)})
		}
		if rec == nil || len(rec.Data) == 0 {
			// Device failed before any audio arrived; nothing to
			// synthesize a meeting transcript for.
			return deliver(&Result{Err: capErr, Category: CategoryAuth})
		}
		return deliver(o.fallbackResult(capErr))
	}
	if rec == nil || len(rec.Data) == 0 {
		return deliver(&Result{Err: errors.New("empty recording"), Category: CategoryUnknown})
	}

	up, err := o.uploader.Upload(ctx, userID, rec)
	if err != nil {
		o.log.Warn().Err(err).Msg("upload failed, generating fallback transcript")
		return deliver(o.fallbackResult(err))
	}

	resp, err := o.client.ProcessAudio(ctx, &gateway.ProcessRequest{
		AudioURL: up.URL,
		FileName: up.FileName,
		UserID:   userID,
		FileSize: int64(up.Size),
	})
	if err != nil {
		o.log.Warn().Err(err).Msg("gateway call failed, generating fallback transcript")
		res := o.fallbackResult(err)
		res.Upload = up
		return deliver(res)
	}

	o.log.Info().
		Str("key", up.Key).
		Int("chars", len(resp.Transcription)).
		Msg("transcription delivered")
	return deliver(&Result{
		Transcription: resp.Transcription,
		Summary:       resp.Summary,
		ActionItems:   resp.ActionItems,
		Upload:        up,
	})
}

func (o *Orchestrator) fallbackResult(cause error) *Result {
	metrics.FallbacksTotal.Inc()
	return &Result{
		Transcription: o.gen.Transcript(),
		Summary:       o.gen.Summary(),
		Degraded:      true,
		Category:      Classify(cause),
		Err:           cause,
	}
}

// LogNotifier reports terminal outcomes through zerolog. It is the CLI's
// user-visible notification channel.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n *LogNotifier) Notify(res *Result) {
	switch {
	case res.Transcription == "":
		n.Log.Error().Err(res.Err).Str("category", string(res.Category)).
			Msg(res.Category.Message())
	case res.Degraded:
		n.Log.Warn().Err(res.Err).Str("category", string(res.Category)).
			Msg(res.Category.Message())
	default:
		n.Log.Info().Msg("transcription ready")
	}
}
