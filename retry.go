package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	llmdomain "github.com/lexlapax/go-llms/pkg/llm/domain"
)

// errClass classifies a transport failure for retry purposes. Classification
// comes from typed error metadata, never from message substrings.
type errClass int

const (
	classPermanent errClass = iota
	classRateLimited
	classUnavailable
)

// classifyLLMError maps a go-llms provider failure onto a retry class.
// Rate limiting and service unavailability are transient; everything else,
// including context cancellation by the caller, is permanent.
func classifyLLMError(err error) errClass {
	var provErr *llmdomain.ProviderError
	if errors.As(err, &provErr) {
		switch {
		case provErr.StatusCode == http.StatusTooManyRequests:
			return classRateLimited
		case provErr.StatusCode >= 500:
			return classUnavailable
		case provErr.StatusCode == 0 && provErr.Retryable:
			return classUnavailable
		}
		return classPermanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return classUnavailable
	}
	return classPermanent
}

// RetryPolicy retries an operation with per-class exponential backoff:
// unavailable services back off by BaseDelay*2^attempt, rate limits more
// steeply by BaseDelay*3^attempt. Permanent failures abort immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		sleep:       time.Sleep,
	}
}

// Do runs op up to MaxAttempts times. It returns nil as soon as op succeeds,
// otherwise the last error.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts-1 {
			break
		}
		var delay time.Duration
		switch classifyLLMError(lastErr) {
		case classUnavailable:
			delay = p.BaseDelay * (1 << attempt)
		case classRateLimited:
			delay = p.BaseDelay * pow3(attempt)
		default:
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
		p.sleep(delay)
	}
	return lastErr
}

func pow3(n int) time.Duration {
	d := time.Duration(1)
	for i := 0; i < n; i++ {
		d *= 3
	}
	return d
}
