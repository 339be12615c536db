// Package redis implements a Redis pub/sub completion adapter.
//
// Each finished run is published as a JSON message to a configurable
// channel, which lets job-queue workers and dashboards react without
// polling the runs directory. Connection errors are retried with
// exponential backoff.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/meshkit-io/chisel/adapter"
)

const (
	// DefaultChannel is the channel events are published to.
	DefaultChannel = "chisel:run_completed"
	// DefaultTimeout bounds a single PUBLISH.
	DefaultTimeout = 5 * time.Second
	// DefaultRetries is the number of re-publishes after the first attempt.
	DefaultRetries = 3
	// DefaultBackoff is the delay before the first retry; it doubles
	// on every subsequent one.
	DefaultBackoff = 500 * time.Millisecond
)

// Config configures the Redis pub/sub adapter.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: chisel:run_completed).
	Channel string
	// Timeout bounds each PUBLISH (default 5s).
	Timeout time.Duration
	// Retries is the re-publish count after the first attempt (default 3).
	Retries int
	// Backoff is the initial retry delay (default 500ms).
	Backoff time.Duration
}

// Adapter publishes run completion events via Redis PUBLISH.
type Adapter struct {
	cfg    Config
	client *goredis.Client
}

// New creates a Redis adapter. The URL is required; zero Channel,
// Timeout, Retries and Backoff take their defaults.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}

	return &Adapter{
		cfg:    cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Publish sends the event as JSON to the configured channel, retrying
// on failure.
func (a *Adapter) Publish(ctx context.Context, event *adapter.RunCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	var lastErr error
	delay := a.cfg.Backoff
	for attempt := 0; attempt <= a.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("redis: canceled during backoff: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		publishCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
		lastErr = a.client.Publish(publishCtx, a.cfg.Channel, body).Err()
		cancel()

		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("redis: canceled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("redis: failed after %d attempts: %w", 1+a.cfg.Retries, lastErr)
}

// Close closes the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)
