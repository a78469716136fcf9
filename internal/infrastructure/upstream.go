package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"agente_gateway/internal/entities"
)

// UpstreamRequest describes one HTTP call to an external API. The caller has
// no knowledge of payload semantics; it only classifies availability.
type UpstreamRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Caller issues upstream HTTP calls with bounded exponential-backoff retries.
// A 503 response, or a 200 whose body encodes an UNAVAILABLE condition, is
// retryable; every other failure is raised immediately. Safe for concurrent use.
type Caller struct {
	client  *http.Client
	retries int
	delay   time.Duration
	logger  *slog.Logger
}

// NewCaller builds a Caller with the given retry budget (total attempts) and
// initial delay. The delay doubles after each retryable failure.
func NewCaller(retries int, delay time.Duration, logger *slog.Logger) *Caller {
	if retries < 1 {
		retries = 3
	}
	if delay <= 0 {
		delay = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Caller{
		client:  &http.Client{Timeout: 60 * time.Second},
		retries: retries,
		delay:   delay,
		logger:  logger,
	}
}

// unavailableBody matches the generative API's encoded-overload shape:
// a 200 response whose body is {"error": {"status": "UNAVAILABLE", ...}}.
type unavailableBody struct {
	Error struct {
		Status string `json:"status"`
	} `json:"error"`
}

// Do issues the request, retrying retryable failures up to the budget.
// Returns the response body on success.
func (c *Caller) Do(ctx context.Context, req UpstreamRequest) ([]byte, error) {
	delay := c.delay
	var lastErr error

	for attempt := 1; attempt <= c.retries; attempt++ {
		body, retryable, err := c.attempt(ctx, req)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err

		if attempt == c.retries {
			break
		}
		c.logger.Debug("upstream unavailable, retrying",
			"url", req.URL, "attempt", attempt, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", entities.ErrUpstreamError, ctx.Err())
		}
		delay *= 2
	}

	return nil, fmt.Errorf("%w: retries exhausted after %d attempts: %w",
		entities.ErrUpstreamError, c.retries, lastErr)
}

// attempt performs a single call and classifies the outcome explicitly:
// (body, false, nil) on success, (nil, true, err) when retryable,
// (nil, false, err) when fatal. The retry loop branches on the classification
// instead of catching a sentinel thrown mid-flight.
func (c *Caller) attempt(ctx context.Context, req UpstreamRequest) ([]byte, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, false, fmt.Errorf("%w: building request: %w", entities.ErrUpstreamError, err)
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// Network errors are raised immediately, not retried.
		return nil, false, fmt.Errorf("%w: %w", entities.ErrUpstreamError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: reading response: %w", entities.ErrUpstreamError, err)
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, true, entities.ErrUpstreamUnavailable
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// A 200 can still encode an overloaded model in its body.
		var probe unavailableBody
		if json.Unmarshal(body, &probe) == nil && probe.Error.Status == "UNAVAILABLE" {
			return nil, true, entities.ErrUpstreamUnavailable
		}
		return body, false, nil
	}

	return nil, false, fmt.Errorf("%w: status %d: %s",
		entities.ErrUpstreamError, resp.StatusCode, truncate(string(body), 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
