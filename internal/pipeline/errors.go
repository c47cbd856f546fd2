package pipeline

import (
	"context"
	"errors"

	"github.com/meetscribe/ms-engine/internal/capture"
)

// Sentinel errors for the client-side pipeline stages.
var (
	ErrUpload             = errors.New("recording upload failed")
	ErrURLResolution      = errors.New("recording URL resolution failed")
	ErrGatewayUnreachable = errors.New("transcription gateway unreachable")
	ErrProvider           = errors.New("transcription provider failed")
	ErrSessionExpired     = errors.New("session expired")
)

// Category classifies a terminal failure for user messaging. It only
// affects the message shown, never the pipeline outcome.
type Category string

const (
	CategoryAuth         Category = "auth"
	CategoryConnectivity Category = "connectivity"
	CategorySize         Category = "size"
	CategoryProvider     Category = "provider"
	CategoryUnknown      Category = "unknown"
)

// Classify maps an error to its messaging category.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, capture.ErrPermissionDenied), errors.Is(err, ErrSessionExpired):
		return CategoryAuth
	case errors.Is(err, capture.ErrSizeLimitExceeded):
		return CategorySize
	case errors.Is(err, ErrProvider):
		return CategoryProvider
	case errors.Is(err, ErrUpload), errors.Is(err, ErrURLResolution),
		errors.Is(err, ErrGatewayUnreachable),
		errors.Is(err, context.DeadlineExceeded):
		return CategoryConnectivity
	default:
		return CategoryUnknown
	}
}

// Message returns the user-facing message for a category.
func (c Category) Message() string {
	switch c {
	case CategoryAuth:
		return "You are signed out or microphone access was denied. Sign in and allow the microphone, then try again."
	case CategoryConnectivity:
		return "The recording could not reach the transcription service. A placeholder transcript was generated."
	case CategorySize:
		return "The recording exceeded the 25 MB limit and was stopped."
	case CategoryProvider:
		return "The transcription service failed to process the recording. A placeholder transcript was generated."
	default:
		return "Something went wrong while processing the recording."
	}
}
