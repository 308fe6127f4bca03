package marketplace

import (
	"context"
	"strings"
	"time"

	"github.com/sellerops/backend/internal/domain/integration"
)

// Policy bounds for environment-sourced values.
const (
	minMaxRetries = 0
	maxMaxRetries = 5
	minBaseDelay  = 100 * time.Millisecond
	maxBaseDelay  = 10 * time.Second

	// maxOutcomeMessageLen caps the message folded into audit rows.
	maxOutcomeMessageLen = 500
)

// Policy is the bounded-retry policy for one HTTP request.
type Policy struct {
	// MaxRetries is the number of re-attempts after the first try.
	MaxRetries int
	// BaseDelay is the backoff unit: sleep n is BaseDelay * 2^(n-1).
	BaseDelay time.Duration
}

// NewPolicy clamps raw configuration values into the allowed ranges.
func NewPolicy(maxRetries int, baseDelayMs int) Policy {
	if maxRetries < minMaxRetries {
		maxRetries = minMaxRetries
	}
	if maxRetries > maxMaxRetries {
		maxRetries = maxMaxRetries
	}
	delay := time.Duration(baseDelayMs) * time.Millisecond
	if delay < minBaseDelay {
		delay = minBaseDelay
	}
	if delay > maxBaseDelay {
		delay = maxBaseDelay
	}
	return Policy{MaxRetries: maxRetries, BaseDelay: delay}
}

// Response is the raw result of one HTTP attempt.
type Response struct {
	StatusCode int
	Body       []byte
}

// RequestFunc issues one HTTP request. It must be idempotent at the HTTP
// layer: the executor may call it multiple times.
type RequestFunc func(ctx context.Context) (*Response, error)

// Executor wraps a request in bounded retry with exponential backoff.
// Failures are classified after every attempt; only RATE_LIMIT, SERVER and
// NETWORK are retried. There is deliberately no jitter: overall request
// volume is low and the backoff doubling alone spreads retries enough.
type Executor struct {
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor with the given policy.
func NewExecutor(policy Policy) *Executor {
	return &Executor{policy: policy, sleep: sleepContext}
}

// Do executes the request up to MaxRetries+1 times. It returns the terminal
// outcome plus the last response observed (nil when every attempt errored
// before a response existed).
func (e *Executor) Do(ctx context.Context, fn RequestFunc) (integration.RetryOutcome, *Response) {
	var (
		lastResp     *Response
		lastCategory integration.FailureCategory
		lastMessage  string
		lastStatus   int
	)

	maxAttempts := e.policy.MaxRetries + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := fn(ctx)
		switch {
		case err != nil:
			lastResp = nil
			lastStatus = 0
			lastCategory = ClassifyErr(err)
			lastMessage = trimMessage(err.Error())
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return integration.RetryOutcome{
				OK:         true,
				StatusCode: resp.StatusCode,
				Attempts:   attempt,
			}, resp
		default:
			lastResp = resp
			lastStatus = resp.StatusCode
			lastCategory = ClassifyHTTP(resp.StatusCode, string(resp.Body))
			lastMessage = trimMessage(string(resp.Body))
		}

		if !lastCategory.ShouldRetry() || attempt == maxAttempts {
			return integration.RetryOutcome{
				StatusCode: lastStatus,
				Category:   lastCategory,
				Message:    lastMessage,
				Attempts:   attempt,
			}, lastResp
		}

		backoff := e.policy.BaseDelay * (1 << (attempt - 1))
		if err := e.sleep(ctx, backoff); err != nil {
			return integration.RetryOutcome{
				Category: integration.FailureNetwork,
				Message:  trimMessage(err.Error()),
				Attempts: attempt,
			}, lastResp
		}
	}

	// Unreachable: the loop always returns.
	return integration.RetryOutcome{Category: integration.FailureUnknown, Attempts: maxAttempts}, lastResp
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func trimMessage(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxOutcomeMessageLen {
		return s[:maxOutcomeMessageLen]
	}
	return s
}
