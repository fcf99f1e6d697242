package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	llmdomain "github.com/lexlapax/go-llms/pkg/llm/domain"
	"github.com/stretchr/testify/assert"
)

func overloadedErr() error {
	return llmdomain.NewProviderError("gemini", "Generate", 503, "model overloaded", nil)
}

func rateLimitErr() error {
	return llmdomain.NewProviderError("gemini", "Generate", 429, "rate limit exceeded", nil)
}

func authErr() error {
	return llmdomain.NewProviderError("gemini", "Generate", 401, "bad key", nil)
}

func TestClassifyLLMError(t *testing.T) {
	assert.Equal(t, classUnavailable, classifyLLMError(overloadedErr()))
	assert.Equal(t, classRateLimited, classifyLLMError(rateLimitErr()))
	assert.Equal(t, classPermanent, classifyLLMError(authErr()))
	assert.Equal(t, classUnavailable, classifyLLMError(context.DeadlineExceeded))
	assert.Equal(t, classPermanent, classifyLLMError(errors.New("503 service unavailable")),
		"message text must not drive classification")
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	var delays []time.Duration
	p := NewRetryPolicy(3, time.Second)
	p.sleep = func(d time.Duration) { delays = append(delays, d) }

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return overloadedErr()
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays,
		"unavailable failures back off by 2^attempt")
}

func TestRetryRateLimitBacksOffSteeper(t *testing.T) {
	var delays []time.Duration
	p := NewRetryPolicy(3, time.Second)
	p.sleep = func(d time.Duration) { delays = append(delays, d) }

	err := p.Do(context.Background(), func() error { return rateLimitErr() })
	assert.Error(t, err)
	assert.Equal(t, []time.Duration{1 * time.Second, 3 * time.Second}, delays,
		"rate limits back off by 3^attempt")
}

func TestRetryPermanentAbortsImmediately(t *testing.T) {
	p := NewRetryPolicy(5, time.Second)
	p.sleep = func(time.Duration) { t.Fatal("permanent failures must not sleep") }

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return authErr()
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryReturnsLastError(t *testing.T) {
	p := NewRetryPolicy(2, time.Millisecond)
	p.sleep = func(time.Duration) {}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return fmt.Errorf("attempt %d: %w", calls, overloadedErr())
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "attempt 2")
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewRetryPolicy(5, time.Second)
	p.sleep = func(time.Duration) { t.Fatal("must not sleep after cancellation") }

	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		cancel()
		return overloadedErr()
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
