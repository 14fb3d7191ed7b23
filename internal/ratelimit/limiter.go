// Package ratelimit paces and retries adapter calls. Every network round
// trip an adapter performs goes through a Limiter, so delay timers and retry
// budgets are scoped per platform instance and concurrent multi-platform
// runs don't cross-contaminate each other's limits.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"social-pulse/internal/platforms"
)

// ErrRetriesExhausted wraps the final transient error once the retry budget
// is spent. Callers treat it as a page failure and keep partial results.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Config tunes one platform's limiter.
type Config struct {
	// MinDelay is the minimum gap between consecutive calls. Scraped
	// platforms default higher than quota-bound API platforms.
	MinDelay time.Duration

	// MaxRetries is how many times a transient failure is retried before
	// the page is declared failed.
	MaxRetries int

	// BaseBackoff is the first retry's wait; each retry doubles it up to
	// MaxBackoff.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultConfig returns conservative settings suitable for a scraped
// platform.
func DefaultConfig() Config {
	return Config{
		MinDelay:    time.Second,
		MaxRetries:  3,
		BaseBackoff: 2 * time.Second,
		MaxBackoff:  30 * time.Second,
	}
}

// Limiter enforces the inter-call delay and transient-error backoff for one
// platform. Safe for concurrent use.
type Limiter struct {
	cfg Config

	mu   sync.Mutex
	last time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New creates a Limiter. Zero config fields fall back to defaults.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}

	return &Limiter{
		cfg:   cfg,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn under the pacing gate, retrying transient errors with capped
// exponential backoff. Permanent and auth errors return immediately; a
// transient error that survives the retry budget comes back wrapped in
// ErrRetriesExhausted.
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	backoff := l.cfg.BaseBackoff

	for attempt := 0; ; attempt++ {
		if err := l.waitTurn(ctx); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !platforms.IsTransient(err) {
			return err
		}
		if attempt >= l.cfg.MaxRetries {
			return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempt+1, err)
		}

		if serr := l.sleep(ctx, backoff); serr != nil {
			return serr
		}
		backoff *= 2
		if backoff > l.cfg.MaxBackoff {
			backoff = l.cfg.MaxBackoff
		}
	}
}

// waitTurn blocks until MinDelay has elapsed since the previous call.
func (l *Limiter) waitTurn(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		wait := l.cfg.MinDelay - now.Sub(l.last)
		if wait <= 0 {
			l.last = now
			l.mu.Unlock()
			return ctx.Err()
		}
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}
