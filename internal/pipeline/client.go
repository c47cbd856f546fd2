package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/meetscribe/ms-engine/internal/gateway"
)

// GatewayClient calls the remote process-audio endpoint.
type GatewayClient struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// NewGatewayClient creates a client for the gateway at baseURL. The
// timeout bounds the whole call including the provider's work, so it
// should exceed the gateway's own provider timeout.
func NewGatewayClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *GatewayClient {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &GatewayClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "gateway_client").Logger(),
	}
}

// ProcessAudio posts the request and returns the gateway's response.
// Transport failures map to ErrGatewayUnreachable, gateway-reported
// failures to ErrProvider.
func (c *GatewayClient) ProcessAudio(ctx context.Context, req *gateway.ProcessRequest) (*gateway.ProcessResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/process-audio", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrGatewayUnreachable, err)
	}

	var out gateway.ProcessResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: malformed response (HTTP %d)", ErrProvider, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		msg := out.Message
		if msg == "" {
			msg = out.Error
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", ErrSessionExpired, msg)
		}
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrProvider, resp.StatusCode, msg)
	}
	if out.Transcription == "" {
		return nil, fmt.Errorf("%w: empty transcription in response", ErrProvider)
	}
	return &out, nil
}
