// Package webhook implements an HTTP POST completion adapter.
//
// Each finished run is posted as a JSON event to a configurable URL,
// typically a job-queue callback that marks the mesh-edit job done and
// points the owner at the produced artifacts. Transient failures are
// retried with exponential backoff; client errors are not.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meshkit-io/chisel/adapter"
	"github.com/meshkit-io/chisel/iox"
)

const (
	// DefaultTimeout bounds a single delivery attempt.
	DefaultTimeout = 10 * time.Second
	// DefaultRetries is the number of re-deliveries after the first attempt.
	DefaultRetries = 3
	// DefaultBackoff is the delay before the first retry; it doubles
	// on every subsequent one.
	DefaultBackoff = 500 * time.Millisecond
)

// Config configures the webhook adapter.
type Config struct {
	// URL is the endpoint events are posted to (required).
	URL string
	// Headers are added to every request, e.g. an Authorization bearer.
	Headers map[string]string
	// Timeout bounds each attempt (default 10s).
	Timeout time.Duration
	// Retries is the re-delivery count after the first attempt (default 3).
	Retries int
	// Backoff is the initial retry delay (default 500ms).
	Backoff time.Duration
}

// Adapter posts run completion events over HTTP.
type Adapter struct {
	cfg    Config
	client *http.Client
}

// New creates a webhook adapter. The URL is required; zero Timeout,
// Retries and Backoff take their defaults.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook adapter requires a URL")
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}

	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// StatusError is returned for non-2xx responses so callers can tell
// retriable server errors from permanent client errors.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Retriable reports whether the response status may succeed on retry.
func (e *StatusError) Retriable() bool {
	return e.Code < 400 || e.Code >= 500
}

// Publish delivers the event, retrying on network errors and 5xx
// responses. A 4xx response fails immediately.
func (a *Adapter) Publish(ctx context.Context, event *adapter.RunCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	var lastErr error
	delay := a.cfg.Backoff
	for attempt := 0; attempt <= a.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("webhook: canceled during backoff: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		lastErr = a.post(ctx, body)
		if lastErr == nil {
			return nil
		}
		var statusErr *StatusError
		if errors.As(lastErr, &statusErr) && !statusErr.Retriable() {
			return fmt.Errorf("webhook: non-retriable error: %w", lastErr)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("webhook: canceled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("webhook: failed after %d attempts: %w", 1+a.cfg.Retries, lastErr)
}

func (a *Adapter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range a.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// Close releases idle connections.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
