// Package pipeline drives the client side of the system: it uploads a
// finished recording, calls the transcription gateway, and guarantees
// the user receives exactly one transcript per session, synthesizing a
// placeholder when the real pipeline fails.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/meetscribe/ms-engine/internal/capture"
	"github.com/meetscribe/ms-engine/internal/storage"
	"github.com/meetscribe/ms-engine/internal/transcribe"
)

// Uploader stores finished recordings in the object store under
// per-user keys.
type Uploader struct {
	store storage.ObjectStore
	log   zerolog.Logger
}

func NewUploader(store storage.ObjectStore, log zerolog.Logger) *Uploader {
	return &Uploader{
		store: store,
		log:   log.With().Str("component", "uploader").Logger(),
	}
}

// UploadResult describes a stored recording.
type UploadResult struct {
	Key      string
	FileName string
	URL      string
	Size     int
}

// Upload stores the recording as {userID}/recording_<epochMillis><ext>
// and resolves a fetchable URL for the gateway. No retries here: the
// orchestrator decides what a failure means.
func (u *Uploader) Upload(ctx context.Context, userID string, rec *capture.Recording) (*UploadResult, error) {
	ext := transcribe.ExtensionForMIME(rec.MIMEType)
	fileName := fmt.Sprintf("recording_%d%s", time.Now().UnixMilli(), ext)
	key := userID + "/" + fileName

	if err := u.store.Save(ctx, key, rec.Data, rec.MIMEType); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUpload, key, err)
	}

	url, err := u.store.URL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrURLResolution, key, err)
	}

	u.log.Info().
		Str("key", key).
		Int("bytes", len(rec.Data)).
		Str("backend", u.store.Type()).
		Msg("recording uploaded")

	return &UploadResult{
		Key:      key,
		FileName: fileName,
		URL:      url,
		Size:     len(rec.Data),
	}, nil
}
