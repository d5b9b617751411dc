// Package timeouts provides centralized timeout values for handler operations.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads, identity resolution
//   - Medium: scoped searches and single-collection writes
//   - Long: writes touching several collections (user and organization deletes)
//   - Batch: domain review batches and other multi-document updates
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

// EnvPrefix prefixes the environment variables read by ConfigureFromEnv.
const EnvPrefix = "CROSSFEED_TIMEOUT_"

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

var defaults = Config{
	Ping:   DefaultPing,
	Short:  DefaultShort,
	Medium: DefaultMedium,
	Long:   DefaultLong,
	Batch:  DefaultBatch,
}

var (
	mu      sync.RWMutex
	current = defaults
)

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(current)
}

// Ping returns the timeout for health checks.
func Ping() time.Duration { return get(func(c Config) time.Duration { return c.Ping }) }

// Short returns the timeout for single-document reads.
func Short() time.Duration { return get(func(c Config) time.Duration { return c.Short }) }

// Medium returns the timeout for searches and simple writes.
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }

// Long returns the timeout for multi-collection writes.
func Long() time.Duration { return get(func(c Config) time.Duration { return c.Long }) }

// Batch returns the timeout for bulk updates.
func Batch() time.Duration { return get(func(c Config) time.Duration { return c.Batch }) }

// fields pairs each Config field with its environment suffix.
func fields(c *Config) []struct {
	env string
	ptr *time.Duration
} {
	return []struct {
		env string
		ptr *time.Duration
	}{
		{"PING", &c.Ping},
		{"SHORT", &c.Short},
		{"MEDIUM", &c.Medium},
		{"LONG", &c.Long},
		{"BATCH", &c.Batch},
	}
}

// Configure sets custom timeout values. Zero values in cfg keep the current
// value. Call during startup, before handlers are serving.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	dst := fields(&current)
	for i, f := range fields(&cfg) {
		if *f.ptr > 0 {
			*dst[i].ptr = *f.ptr
		}
	}
}

// Reset restores all timeouts to their default values.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults
}

// ConfigureFromEnv reads CROSSFEED_TIMEOUT_PING, _SHORT, _MEDIUM, _LONG and
// _BATCH (Go durations such as "500ms" or "2m"). Unset, unparsable, and
// non-positive values are skipped. Returns how many values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for _, f := range fields(&cfg) {
		v := os.Getenv(EnvPrefix + f.env)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*f.ptr = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "domain review")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
