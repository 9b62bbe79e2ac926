// Package scoring provides an HTTP client for the external scoring
// collaborator. The collaborator is a black box: one synchronous call in,
// a score with sub-scores and a rationale out.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kbforge/kbforge/internal/config"
	"github.com/kbforge/kbforge/internal/domain/assessment"
	"github.com/kbforge/kbforge/internal/resilience"
)

// Request is the payload sent to the scoring collaborator.
type Request struct {
	DocumentRef string              `json:"document_ref"`
	Criteria    assessment.Criteria `json:"criteria"`
}

// Response is the collaborator's raw output. Fields may be partial or
// malformed; normalization happens in the assessment activity, not here.
type Response struct {
	Score     float64            `json:"score"`
	SubScores map[string]float64 `json:"sub_scores,omitempty"`
	Rationale string             `json:"rationale,omitempty"`
}

// Client talks to the scoring collaborator over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a scoring client from config.
func NewClient(cfg config.Scoring) *Client {
	return &Client{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Score invokes the collaborator for one document.
func (c *Client) Score(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/v1/score", body)
	if err != nil {
		return nil, fmt.Errorf("score %s: %w", req.DocumentRef, err)
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal score response: %w", err)
	}
	return &resp, nil
}

// doRequest performs an HTTP request, optionally through the breaker.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("scoring collaborator returned %d: %s", resp.StatusCode, truncate(data, 200))
		}
		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}
	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
