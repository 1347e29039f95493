package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
	"github.com/heartspace/web-gateway/internal/pkg/metrics"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 10 << 20
)

// Config captures the settings of the backend client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// APIError is returned for non-2xx responses. Envelope holds the
// normalized body so callers can still surface the backend's message.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Envelope   domain.Envelope[json.RawMessage]
}

func (e *APIError) Error() string {
	msg := e.Envelope.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// StatusCode extracts the HTTP status from an APIError chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Client implements ports.Backend over net/http.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ ports.Backend = (*Client)(nil)

// NewClient returns a Client. A default timeout is applied when none is provided.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Do sends req, attaching the bearer token, and normalizes the response.
func (c *Client) Do(ctx context.Context, req ports.BackendRequest) (domain.Envelope[json.RawMessage], error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := c.newRequest(ctx, method, req)
	if err != nil {
		return failure(0, "request could not be built"), err
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(method, "error").Observe(time.Since(start).Seconds())
		return failure(0, "backend unavailable"), fmt.Errorf("backend %s %s: %w", method, req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.BackendRequestDuration.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return failure(resp.StatusCode, "unreadable response"), fmt.Errorf("backend %s %s: read body: %w", method, req.Path, err)
	}

	env, err := Normalize(body, resp.StatusCode)
	if err != nil {
		return env, fmt.Errorf("backend %s %s: %w", method, req.Path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.log.Debug().
			Str("method", method).
			Str("path", req.Path).
			Int("status", resp.StatusCode).
			Str("message", env.Message).
			Msg("backend returned error status")
		return env, &APIError{Method: method, Path: req.Path, StatusCode: resp.StatusCode, Envelope: env}
	}

	return env, nil
}

func (c *Client) newRequest(ctx context.Context, method string, req ports.BackendRequest) (*http.Request, error) {
	url := c.baseURL + req.Path
	if len(req.Query) > 0 {
		url += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	return httpReq, nil
}
