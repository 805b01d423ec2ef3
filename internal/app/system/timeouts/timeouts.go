// Package timeouts provides centralized timeout values for handler and job
// operations.
//
// Ping covers health checks, Short single-document reads, Medium ledger
// aggregations and the data endpoint, Long registration, seeding and
// background dashboard reloads.
package timeouts

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Defaults apply until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

// Config holds one value per timeout class. In Configure, zero fields keep
// the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

func defaults() *Config {
	return &Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

var current atomic.Pointer[Config]

func init() { current.Store(defaults()) }

// Ping bounds health checks.
func Ping() time.Duration { return current.Load().Ping }

// Short bounds single lookups.
func Short() time.Duration { return current.Load().Short }

// Medium bounds list and aggregation queries.
func Medium() time.Duration { return current.Load().Medium }

// Long bounds multi-collection writes and dashboard reloads.
func Long() time.Duration { return current.Load().Long }

// Configure overrides the non-zero fields of cfg. Startup calls it once
// from the timeout_* config keys.
func Configure(cfg Config) {
	for {
		old := current.Load()
		next := *old
		for _, f := range []struct {
			dst *time.Duration
			v   time.Duration
		}{
			{&next.Ping, cfg.Ping},
			{&next.Short, cfg.Short},
			{&next.Medium, cfg.Medium},
			{&next.Long, cfg.Long},
		} {
			if f.v > 0 {
				*f.dst = f.v
			}
		}
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Reset restores the defaults.
func Reset() { current.Store(defaults()) }

// Current returns a copy of the active values.
func Current() Config { return *current.Load() }

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline, rather than the caller, ended the operation.
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
