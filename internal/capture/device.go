package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrPermissionDenied is returned by a Device when the platform refuses
// access to the audio input. It is terminal for the recording attempt.
var ErrPermissionDenied = errors.New("capture: audio device access denied")

// Chunk is one timesliced piece of recorded audio.
type Chunk struct {
	Data []byte
	At   time.Time
}

// Constraints are the capture settings requested from the device.
// Speech transcription wants mono 16 kHz with echo cancellation and
// noise suppression; the device may negotiate something else.
type Constraints struct {
	SampleRate       int
	ChannelCount     int
	EchoCancellation bool
	NoiseSuppression bool
	Timeslice        time.Duration
}

// DefaultConstraints returns the speech-appropriate capture settings.
func DefaultConstraints() Constraints {
	return Constraints{
		SampleRate:       16000,
		ChannelCount:     1,
		EchoCancellation: true,
		NoiseSuppression: true,
		Timeslice:        500 * time.Millisecond,
	}
}

// Device is an audio input source producing timesliced chunks.
// Start returns the chunk stream and the negotiated MIME type. The stream
// is closed when the device stops or the underlying platform terminates it.
type Device interface {
	Start(ctx context.Context, c Constraints) (<-chan Chunk, string, error)
	Stop() error
}

// FileDevice replays an audio file in fixed-interval slices, standing in
// for a live microphone. Used by the CLI and by tests.
type FileDevice struct {
	Path string

	// SliceBytes is how many bytes each timeslice carries. Defaults to 32 KiB.
	SliceBytes int

	// Realtime paces chunk emission at the constraint timeslice interval.
	// Off by default so tests run instantly.
	Realtime bool

	cancel context.CancelFunc
}

var fileMIMETypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".mp4":  "audio/mp4",
	".m4a":  "audio/mp4",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

// MIMEForPath maps a recording file's extension to its MIME type,
// defaulting to audio/webm for anything unrecognized.
func MIMEForPath(path string) string {
	if mime := fileMIMETypes[strings.ToLower(filepath.Ext(path))]; mime != "" {
		return mime
	}
	return "audio/webm"
}

// IsAudioPath reports whether the file extension is a supported
// recording format.
func IsAudioPath(path string) bool {
	_, ok := fileMIMETypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (d *FileDevice) Start(ctx context.Context, c Constraints) (<-chan Chunk, string, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, "", ErrPermissionDenied
		}
		return nil, "", err
	}

	mime := MIMEForPath(d.Path)

	sliceBytes := d.SliceBytes
	if sliceBytes <= 0 {
		sliceBytes = 32 * 1024
	}

	ctx, d.cancel = context.WithCancel(ctx)
	ch := make(chan Chunk)

	go func() {
		defer close(ch)
		for off := 0; off < len(data); off += sliceBytes {
			end := off + sliceBytes
			if end > len(data) {
				end = len(data)
			}
			if d.Realtime && c.Timeslice > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.Timeslice):
				}
			}
			select {
			case <-ctx.Done():
				return
			case ch <- Chunk{Data: data[off:end], At: time.Now()}:
			}
		}
	}()

	return ch, mime, nil
}

func (d *FileDevice) Stop() error {
	if d.cancel != nil {
		d.cancel()
	}
	return nil
}
