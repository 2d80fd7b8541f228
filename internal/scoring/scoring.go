// Package scoring provides the authenticity and speech-quality
// collaborators: thin HTTP clients for the external inference services,
// plus static pass-through implementations for deployments that run
// without them. Results are passed through unmodified; the internals of
// the scoring models are out of scope here.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single inference request.
const DefaultTimeout = 30 * time.Second

// scoreRequest is the request body for both services.
type scoreRequest struct {
	File string `json:"file"`
}

// AuthenticityClient calls the anti-spoofing inference service.
type AuthenticityClient struct {
	endpoint string
	httpc    *http.Client
}

// NewAuthenticityClient creates a client for the given endpoint.
func NewAuthenticityClient(endpoint string, timeout time.Duration) *AuthenticityClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AuthenticityClient{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// Check returns the service's verdict for the recording: 1 authentic,
// 0 tampered/spoofed. Any other value is a contract violation.
func (c *AuthenticityClient) Check(ctx context.Context, path string) (int, error) {
	var resp struct {
		Authentic int `json:"authentic"`
	}
	if err := postJSON(ctx, c.httpc, c.endpoint, scoreRequest{File: path}, &resp); err != nil {
		return 0, fmt.Errorf("authenticity check: %w", err)
	}
	if resp.Authentic != 0 && resp.Authentic != 1 {
		return 0, fmt.Errorf("authenticity check: service returned %d, want 0 or 1", resp.Authentic)
	}
	return resp.Authentic, nil
}

// QualityClient calls the speech-quality scoring service.
type QualityClient struct {
	endpoint string
	httpc    *http.Client
}

// NewQualityClient creates a client for the given endpoint.
func NewQualityClient(endpoint string, timeout time.Duration) *QualityClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &QualityClient{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// Score returns the service's quality score in [0,1].
func (c *QualityClient) Score(ctx context.Context, path string) (float64, error) {
	var resp struct {
		Score float64 `json:"score"`
	}
	if err := postJSON(ctx, c.httpc, c.endpoint, scoreRequest{File: path}, &resp); err != nil {
		return 0, fmt.Errorf("quality score: %w", err)
	}
	if resp.Score < 0 || resp.Score > 1 {
		return 0, fmt.Errorf("quality score: service returned %v, want [0,1]", resp.Score)
	}
	return resp.Score, nil
}

// StaticAuthenticity is a fixed authenticity verdict, used when no
// inference service is configured.
type StaticAuthenticity int

// Check returns the fixed verdict.
func (s StaticAuthenticity) Check(ctx context.Context, path string) (int, error) {
	return int(s), nil
}

// StaticQuality is a fixed quality score, used when no scoring service is
// configured.
type StaticQuality float64

// Score returns the fixed score.
func (s StaticQuality) Score(ctx context.Context, path string) (float64, error) {
	return float64(s), nil
}

func postJSON(ctx context.Context, httpc *http.Client, endpoint string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
