package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/meetscribe/ms-engine/internal/config"
)

// ObjectStore abstracts the recording object-store backends.
// Keys are namespaced per user: {userId}/{fileName}. The namespacing
// prevents cross-user collisions by construction.
type ObjectStore interface {
	// Save stores a recording blob under the key.
	Save(ctx context.Context, key string, data []byte, contentType string) error

	// Open returns a reader for the stored object.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// URL returns a fetchable URL for the object. Backends without an
	// HTTP surface return a store:// URL the gateway resolves internally.
	URL(ctx context.Context, key string) (string, error)

	// Exists checks whether the object is present.
	Exists(ctx context.Context, key string) bool

	// Type returns "local", "s3", or "supabase".
	Type() string
}

// StoreURLScheme prefixes URLs that point back into the object store
// rather than at a public HTTP endpoint.
const StoreURLScheme = "store://"

// StoreKey extracts the object key from a store:// URL. Returns "", false
// for any other URL shape.
func StoreKey(url string) (string, bool) {
	if !strings.HasPrefix(url, StoreURLScheme) {
		return "", false
	}
	return strings.TrimPrefix(url, StoreURLScheme), true
}

// New creates an ObjectStore from config. S3 and Supabase backends are
// verified reachable at startup so misconfiguration fails fast.
func New(cfg config.StorageConfig, log zerolog.Logger) (ObjectStore, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.LocalDir), nil

	case "s3":
		s3store, err := NewS3Store(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("s3 init failed: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s3store.HeadBucket(ctx); err != nil {
			return nil, fmt.Errorf("s3 startup check failed (bucket=%q endpoint=%q): %w",
				cfg.Bucket, cfg.S3Endpoint, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.S3Endpoint).Msg("s3 connection verified")
		return s3store, nil

	case "supabase":
		store, err := NewSupabaseStore(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("supabase init failed: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
