package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrSizeLimitExceeded is recorded when the running byte estimate reaches
// the hard cap and the recorder auto-stops.
var ErrSizeLimitExceeded = errors.New("capture: recording size limit exceeded")

// ErrNotRecording is returned by Stop when Start never succeeded.
var ErrNotRecording = errors.New("capture: not recording")

// Recording is a finished capture: one blob tagged with the negotiated
// MIME type plus the elapsed recording time.
type Recording struct {
	Data     []byte
	MIMEType string
	Duration time.Duration
}

// Events are the recorder's outbound notifications. All callbacks are
// optional and are invoked at most once per recording session.
type Events struct {
	// SizeWarning fires when the running estimate crosses the soft
	// threshold (80% of the hard cap).
	SizeWarning func(bytes, limit int64)

	// SizeExceeded fires when the hard cap is reached. The recorder has
	// already auto-stopped; no further chunks are accepted.
	SizeExceeded func(bytes, limit int64)

	// Complete receives the finished recording after a normal Stop.
	// Invoked on its own goroutine so Stop never blocks on the consumer.
	Complete func(Recording)
}

// Options configure a Recorder.
type Options struct {
	Device      Device
	Constraints Constraints
	MaxBytes    int64   // hard cap; 0 disables size enforcement
	WarnAt      float64 // soft threshold fraction of MaxBytes, default 0.8
	Events      Events
	Log         zerolog.Logger
}

// Recorder owns one microphone session: it accumulates timesliced chunks,
// tracks the running size, and finalizes the blob on Stop. A Recorder is
// single-use; create a new one for each recording.
type Recorder struct {
	opts Options

	mu        sync.Mutex
	chunks    [][]byte
	size      int64
	mime      string
	startedAt time.Time
	recording bool
	stopped   bool
	warned    bool
	capErr    error
	final     *Recording

	drained chan struct{}
}

// NewRecorder creates a recorder around the given device.
func NewRecorder(opts Options) *Recorder {
	if opts.WarnAt <= 0 || opts.WarnAt >= 1 {
		opts.WarnAt = 0.8
	}
	if opts.Constraints == (Constraints{}) {
		opts.Constraints = DefaultConstraints()
	}
	return &Recorder{opts: opts, drained: make(chan struct{})}
}

// Start requests the audio device and begins accumulating chunks.
// A device refusal surfaces as ErrPermissionDenied and the recording
// does not start.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.recording || r.stopped {
		r.mu.Unlock()
		return errors.New("capture: recorder already used")
	}
	r.mu.Unlock()

	ch, mime, err := r.opts.Device.Start(ctx, r.opts.Constraints)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.recording = true
	r.mime = mime
	r.startedAt = time.Now()
	r.mu.Unlock()

	r.opts.Log.Debug().Str("mime", mime).Msg("recording started")
	go r.accumulate(ch)
	return nil
}

// accumulate drains the device chunk stream, enforcing the size caps.
func (r *Recorder) accumulate(ch <-chan Chunk) {
	defer close(r.drained)
	for c := range ch {
		if !r.accept(c.Data) {
			// Hard cap reached: release the device and drain the rest
			// of the stream without accepting anything.
			r.opts.Device.Stop()
			for range ch {
			}
			return
		}
	}
}

// accept appends a chunk under the size caps. Returns false once the hard
// cap is reached, after which no further chunks are accepted.
func (r *Recorder) accept(data []byte) bool {
	r.mu.Lock()

	if r.stopped || r.capErr != nil {
		r.mu.Unlock()
		return false
	}

	next := r.size + int64(len(data))
	limit := r.opts.MaxBytes

	if limit > 0 && next >= limit {
		r.capErr = ErrSizeLimitExceeded
		r.recording = false
		size := r.size
		r.mu.Unlock()

		r.opts.Log.Warn().
			Int64("bytes", size).
			Int64("limit", limit).
			Msg("size limit reached, auto-stopping recording")
		if r.opts.Events.SizeExceeded != nil {
			r.opts.Events.SizeExceeded(size, limit)
		}
		return false
	}

	r.chunks = append(r.chunks, data)
	r.size = next

	warn := false
	if limit > 0 && !r.warned && float64(next) >= float64(limit)*r.opts.WarnAt {
		r.warned = true
		warn = true
	}
	r.mu.Unlock()

	if warn && r.opts.Events.SizeWarning != nil {
		r.opts.Events.SizeWarning(next, limit)
	}
	return true
}

// Stop finalizes the recording: releases the device, assembles the blob,
// and hands it to the Complete callback without blocking the caller.
// Repeated calls are idempotent; they return the already-finalized
// recording with no further side effects.
func (r *Recorder) Stop() (*Recording, error) {
	r.mu.Lock()
	if r.stopped {
		final, capErr := r.final, r.capErr
		r.mu.Unlock()
		return final, capErr
	}
	if !r.recording && r.capErr == nil {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	r.stopped = true
	r.recording = false
	capErr := r.capErr
	r.mu.Unlock()

	r.opts.Device.Stop()
	<-r.drained

	r.mu.Lock()
	total := 0
	for _, c := range r.chunks {
		total += len(c)
	}
	blob := make([]byte, 0, total)
	for _, c := range r.chunks {
		blob = append(blob, c...)
	}
	r.chunks = nil // release chunk references
	rec := &Recording{
		Data:     blob,
		MIMEType: r.mime,
		Duration: time.Since(r.startedAt),
	}
	r.final = rec
	r.mu.Unlock()

	r.opts.Log.Debug().
		Int("bytes", len(rec.Data)).
		Dur("duration", rec.Duration).
		Msg("recording stopped")

	// The size-exceeded notice already fired; the blob is finalized but
	// not delivered, matching the terminal semantics of the cap.
	if capErr != nil {
		return rec, capErr
	}

	if r.opts.Events.Complete != nil {
		go r.opts.Events.Complete(*rec)
	}
	return rec, nil
}

// Done returns a channel closed when the device's chunk stream ends,
// either because the source is exhausted or the device was stopped.
func (r *Recorder) Done() <-chan struct{} {
	return r.drained
}

// BytesRecorded returns the running byte estimate.
func (r *Recorder) BytesRecorded() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// ChunkCount returns how many chunks have been accepted so far.
func (r *Recorder) ChunkCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks)
}
