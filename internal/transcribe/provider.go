package transcribe

import "context"

// MaxAudioBytes is the transcription provider's hard file-size limit.
// Capture and the gateway both enforce it so an oversized recording is
// caught before the provider rejects it.
const MaxAudioBytes = 25 * 1024 * 1024

// Provider is the interface for speech-to-text backends.
type Provider interface {
	Transcribe(ctx context.Context, fileName string, audio []byte, opts TranscribeOpts) (*Response, error)
	Name() string  // "whisper"
	Model() string // model identifier for DB/logs
}

// TranscribeOpts are per-request options for the provider.
type TranscribeOpts struct {
	Language    string
	Temperature float64
	Prompt      string // domain vocabulary hint
}

// Response is the common transcription result from any provider.
type Response struct {
	Text     string
	Language string
	Duration float64 // audio duration in seconds
}
