// Package api is the HTTP client for the remote summarization service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/strrl/text-summarizer/pkg/models"
)

// Endpoint paths, relative to the configured base URL
const (
	SummarizePath = "/api/summarize"
	HealthPath    = "/health"
	InfoPath      = "/api/info"
)

// MaxLength is the length hint sent with every summarize request
const MaxLength = 500

var (
	// ErrMalformedResponse is returned when a successful response lacks the expected fields
	ErrMalformedResponse = errors.New("malformed response from summarization service")

	// ErrNoBaseURL is returned when no API location is configured
	ErrNoBaseURL = errors.New("summarization API base URL is not configured")
)

// Request is the body of a summarize call
type Request struct {
	Text      string       `json:"text"`
	Style     models.Style `json:"style"`
	MaxLength int          `json:"max_length"`
}

// Response is the body of a successful summarize call
type Response struct {
	Summary           string  `json:"summary"`
	OriginalWordCount int     `json:"original_word_count"`
	SummaryWordCount  int     `json:"summary_word_count"`
	CompressionRatio  float64 `json:"compression_ratio"`
}

// wireResponse uses pointers so absent fields can be told apart from zero values
type wireResponse struct {
	Summary           *string  `json:"summary"`
	OriginalWordCount *int     `json:"original_word_count"`
	SummaryWordCount  *int     `json:"summary_word_count"`
	CompressionRatio  *float64 `json:"compression_ratio"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// APIError is a non-success HTTP response from the service
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// Client talks to the summarization service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the transport timeout. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service location the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Summarize sends text to the service and returns its summary
func (c *Client) Summarize(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode summarize request: %w", err)
	}

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, SummarizePath, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read summarize response: %w", err)
	}

	c.logger.Debug("summarize request finished",
		slog.Int("status", resp.StatusCode),
		slog.String("style", string(req.Style)),
		slog.Int("input_bytes", len(req.Text)),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp.StatusCode, data)
	}

	var wire wireResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if wire.Summary == nil || wire.OriginalWordCount == nil || wire.SummaryWordCount == nil || wire.CompressionRatio == nil {
		return nil, fmt.Errorf("%w: missing summary fields", ErrMalformedResponse)
	}

	return &Response{
		Summary:           *wire.Summary,
		OriginalWordCount: *wire.OriginalWordCount,
		SummaryWordCount:  *wire.SummaryWordCount,
		CompressionRatio:  *wire.CompressionRatio,
	}, nil
}

// Health queries the service health endpoint
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, HealthPath)
}

// Info queries the service info endpoint
func (c *Client) Info(ctx context.Context) (map[string]any, error) {
	return c.getJSON(ctx, InfoPath)
}

func (c *Client) getJSON(ctx context.Context, path string) (map[string]any, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp.StatusCode, data)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, ErrNoBaseURL
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("summarization service unreachable",
			slog.String("url", c.baseURL+path),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to reach summarization service: %w", err)
	}
	return resp, nil
}

// decodeAPIError extracts the detail field when the body carries one
func decodeAPIError(status int, data []byte) error {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return &APIError{StatusCode: status}
	}
	return &APIError{StatusCode: status, Detail: eb.Detail}
}
