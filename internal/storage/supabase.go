package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/meetscribe/ms-engine/internal/config"
)

// SupabaseStore stores recordings via the Supabase Storage REST API.
// The service-role key is sent as a bearer token; object URLs resolve to
// the bucket's public endpoint.
type SupabaseStore struct {
	baseURL   string
	bucket    string
	secretKey string
	client    *http.Client
	log       zerolog.Logger
}

// NewSupabaseStore creates a Supabase storage client from config.
func NewSupabaseStore(cfg config.StorageConfig, log zerolog.Logger) (*SupabaseStore, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("supabase backend requires SUPABASE_URL and SUPABASE_SERVICE_KEY")
	}
	return &SupabaseStore{
		baseURL:   strings.TrimRight(cfg.SupabaseURL, "/") + "/storage/v1",
		bucket:    cfg.Bucket,
		secretKey: cfg.SupabaseKey,
		client:    &http.Client{Timeout: 2 * time.Minute},
		log:       log.With().Str("component", "supabase-store").Logger(),
	}, nil
}

func (s *SupabaseStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	u := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("supabase create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("supabase upload failed (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

func (s *SupabaseStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	u := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase download: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("object not found: %s", key)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("supabase download failed (status %d): %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

func (s *SupabaseStore) URL(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, key), nil
}

func (s *SupabaseStore) Exists(ctx context.Context, key string) bool {
	u := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 400
}

func (s *SupabaseStore) Type() string { return "supabase" }

// compile-time checks
var (
	_ ObjectStore = (*LocalStore)(nil)
	_ ObjectStore = (*S3Store)(nil)
	_ ObjectStore = (*SupabaseStore)(nil)
)
