// Package analyzer is the web application's client for the sentimentd
// inference service.
//
// The call is a single synchronous POST with a bounded timeout and no
// retries; any failure is terminal for the request and leaves the entry
// stored without sentiment.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/feelwritelabs/feelwrite/internal/sentiment"
)

var (
	// ErrInvalidConfig indicates invalid client configuration.
	ErrInvalidConfig = errors.New("invalid analyzer configuration")

	// ErrMissingInput indicates an empty entry id or text.
	ErrMissingInput = errors.New("entry id and text are required")

	// ErrUnavailable indicates the inference service could not be
	// reached or refused the request.
	ErrUnavailable = errors.New("analyzer unavailable")
)

// DefaultTimeout bounds the synchronous scoring call.
const DefaultTimeout = 10 * time.Second

// Config holds client configuration.
type Config struct {
	// BaseURL is the sentimentd base URL, e.g. http://localhost:5001.
	BaseURL string

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Result is the inference service's response for a scored entry.
type Result struct {
	Status    string           `json:"status"`
	EntryID   string           `json:"entry_id"`
	Sentiment *sentiment.Score `json:"sentiment,omitempty"`
}

// Client calls the sentimentd /analyze endpoint.
type Client struct {
	config Config
	client *http.Client
}

// New creates an analyzer client.
func New(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

// analyzeRequest is the request body for POST /analyze.
type analyzeRequest struct {
	EntryID string `json:"entry_id"`
	Text    string `json:"text"`
}

// errorResponse is the error body returned by sentimentd.
type errorResponse struct {
	Error string `json:"error"`
}

// Analyze asks the inference service to score text and attach the result
// to the entry. Transport failures, timeouts and non-2xx responses all
// map to ErrUnavailable.
func (c *Client) Analyze(ctx context.Context, entryID, text string) (*Result, error) {
	if entryID == "" || text == "" {
		return nil, ErrMissingInput
	}

	body, err := json.Marshal(analyzeRequest{EntryID: entryID, Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&errResp); decodeErr == nil && errResp.Error != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	return &result, nil
}
