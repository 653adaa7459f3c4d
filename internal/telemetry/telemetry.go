// Package telemetry sends the anonymous usage ping: one GET to the collector
// announcing that the target was opened, with its version. Failures are
// only ever logged at debug level.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"bqtarget/internal/logger"
)

// DefaultURL is the collector endpoint.
const DefaultURL = "https://collector.singer.io/i"

// Config configures one ping.
type Config struct {
	URL     string
	Version string
	// RetryMax is the number of retries after the first attempt.
	RetryMax int
	Timeout  time.Duration
	Logger   logger.Logger
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = logger.NopLogger
	}
	return c
}

// Params returns the query parameters of the ping.
func Params(version string) url.Values {
	return url.Values{
		"e":     {"se"},
		"aid":   {"singer"},
		"se_ca": {"target-bigquery"},
		"se_ac": {"open"},
		"se_la": {version},
		"eid":   {uuid.NewString()},
	}
}

// Send performs the ping synchronously.
func Send(ctx context.Context, cfg Config) error {
	cfg = cfg.withDefaults()

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("telemetry url: %w", err)
	}
	u.RawQuery = Params(cfg.Version).Encode()

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = leveled{cfg.Logger}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("telemetry request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("telemetry: status %s", resp.Status)
	}
	return nil
}

// Start sends the ping in a detached goroutine. The returned channel closes
// when the attempt is over; callers are free to ignore it.
func Start(ctx context.Context, cfg Config) <-chan struct{} {
	cfg = cfg.withDefaults()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				cfg.Logger.Debugf("telemetry: recovered: %v", r)
			}
		}()
		if err := Send(ctx, cfg); err != nil {
			cfg.Logger.Debugf("collection request failed: %v", err)
		}
	}()
	return done
}

// leveled routes retryablehttp's own logging to debug.
type leveled struct{ l logger.Logger }

func (lv leveled) Error(msg string, kv ...interface{}) { lv.l.Debugf("telemetry: %s %v", msg, kv) }
func (lv leveled) Info(msg string, kv ...interface{})  { lv.l.Debugf("telemetry: %s %v", msg, kv) }
func (lv leveled) Debug(msg string, kv ...interface{}) { lv.l.Debugf("telemetry: %s %v", msg, kv) }
func (lv leveled) Warn(msg string, kv ...interface{})  { lv.l.Debugf("telemetry: %s %v", msg, kv) }
