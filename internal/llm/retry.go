package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/prepfunnel/internal/logger"
)

// RetryProvider is a decorator that retries transient errors with
// exponential backoff and jitter, inside an overall deadline.
type RetryProvider struct {
	inner   Provider
	config  RetryConfig
	timeout time.Duration
	log     *logger.Logger
}

// WithRetry wraps a Provider with retry logic. A positive timeout bounds
// the whole call, waits included.
func WithRetry(p Provider, cfg RetryConfig, timeout time.Duration, log *logger.Logger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RetryProvider{inner: p, config: cfg, timeout: timeout, log: log}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var lastErr error
	invalidRetried := false
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !r.shouldRetry(err, &invalidRetried) {
			return nil, err
		}
		if attempt >= r.config.MaxAttempts {
			break
		}

		wait := r.backoff(attempt-1, err)
		r.log.Warn("llm request failed, retrying",
			"purpose", PurposeFrom(ctx), "attempt", attempt, "wait", wait, "error", err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("waiting to retry: %w (last error: %v)", ctx.Err(), lastErr)
		case <-t.C:
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// shouldRetry applies Retryable, allowing at most one retry for a response
// that failed schema validation.
func (r *RetryProvider) shouldRetry(err error, invalidRetried *bool) bool {
	if !Retryable(err) {
		return false
	}
	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
	}
	return true
}

// backoff computes the wait before retry number attempt (zero based).
// A rate limit with a RetryAfter hint is honored as is.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	wait = math.Min(wait, float64(r.config.MaxWait))
	// ±20% jitter
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0))
}
