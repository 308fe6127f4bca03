package marketplace

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sellerops/backend/internal/domain/integration"
)

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name        string
		maxRetries  int
		baseDelayMs int
		wantRetries int
		wantDelay   time.Duration
	}{
		{name: "values in range pass through", maxRetries: 3, baseDelayMs: 500, wantRetries: 3, wantDelay: 500 * time.Millisecond},
		{name: "negative retries clamp to zero", maxRetries: -2, baseDelayMs: 400, wantRetries: 0, wantDelay: 400 * time.Millisecond},
		{name: "excess retries clamp to five", maxRetries: 99, baseDelayMs: 400, wantRetries: 5, wantDelay: 400 * time.Millisecond},
		{name: "tiny delay clamps to floor", maxRetries: 1, baseDelayMs: 5, wantRetries: 1, wantDelay: 100 * time.Millisecond},
		{name: "huge delay clamps to ceiling", maxRetries: 1, baseDelayMs: 60000, wantRetries: 1, wantDelay: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := NewPolicy(tt.maxRetries, tt.baseDelayMs)
			assert.Equal(t, tt.wantRetries, policy.MaxRetries)
			assert.Equal(t, tt.wantDelay, policy.BaseDelay)
		})
	}
}

// newTestExecutor returns an executor whose sleeps are recorded, not taken.
func newTestExecutor(policy Policy) (*Executor, *[]time.Duration) {
	exec := NewExecutor(policy)
	var slept []time.Duration
	exec.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return exec, &slept
}

func TestExecutorDo(t *testing.T) {
	ctx := context.Background()

	t.Run("first attempt success returns immediately", func(t *testing.T) {
		exec, slept := newTestExecutor(NewPolicy(3, 400))
		calls := 0

		outcome, resp := exec.Do(ctx, func(context.Context) (*Response, error) {
			calls++
			return &Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
		})

		assert.True(t, outcome.OK)
		assert.Equal(t, 1, outcome.Attempts)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 1, calls)
		assert.Empty(t, *slept)
	})

	t.Run("server errors retry with doubling backoff", func(t *testing.T) {
		exec, slept := newTestExecutor(NewPolicy(2, 400))
		calls := 0

		outcome, _ := exec.Do(ctx, func(context.Context) (*Response, error) {
			calls++
			return &Response{StatusCode: http.StatusBadGateway}, nil
		})

		assert.False(t, outcome.OK)
		assert.Equal(t, integration.FailureServer, outcome.Category)
		assert.Equal(t, 3, outcome.Attempts)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{400 * time.Millisecond, 800 * time.Millisecond}, *slept)
	})

	t.Run("recovery mid-chain succeeds", func(t *testing.T) {
		exec, _ := newTestExecutor(NewPolicy(3, 400))
		calls := 0

		outcome, _ := exec.Do(ctx, func(context.Context) (*Response, error) {
			calls++
			if calls < 3 {
				return &Response{StatusCode: http.StatusServiceUnavailable}, nil
			}
			return &Response{StatusCode: http.StatusOK}, nil
		})

		assert.True(t, outcome.OK)
		assert.Equal(t, 3, outcome.Attempts)
	})

	t.Run("auth failure never retries", func(t *testing.T) {
		exec, slept := newTestExecutor(NewPolicy(5, 400))
		calls := 0

		outcome, _ := exec.Do(ctx, func(context.Context) (*Response, error) {
			calls++
			return &Response{StatusCode: http.StatusUnauthorized}, nil
		})

		assert.Equal(t, integration.FailureAuth, outcome.Category)
		assert.Equal(t, 1, outcome.Attempts)
		assert.Equal(t, 1, calls)
		assert.Empty(t, *slept)
	})

	t.Run("validation failure never retries", func(t *testing.T) {
		exec, _ := newTestExecutor(NewPolicy(5, 400))
		calls := 0

		outcome, _ := exec.Do(ctx, func(context.Context) (*Response, error) {
			calls++
			return &Response{StatusCode: http.StatusBadRequest, Body: []byte(`{"message":"missing field"}`)}, nil
		})

		assert.Equal(t, integration.FailureInvalid, outcome.Category)
		assert.Equal(t, 1, calls)
	})

	t.Run("transport errors retry and classify as network", func(t *testing.T) {
		exec, _ := newTestExecutor(NewPolicy(1, 400))
		calls := 0

		outcome, resp := exec.Do(ctx, func(context.Context) (*Response, error) {
			calls++
			return nil, errors.New("dial tcp: connection refused")
		})

		assert.Equal(t, integration.FailureNetwork, outcome.Category)
		assert.Equal(t, 2, outcome.Attempts)
		assert.Equal(t, 2, calls)
		assert.Nil(t, resp)
	})

	t.Run("zero retries means a single attempt", func(t *testing.T) {
		exec, _ := newTestExecutor(NewPolicy(0, 400))
		calls := 0

		outcome, _ := exec.Do(ctx, func(context.Context) (*Response, error) {
			calls++
			return &Response{StatusCode: http.StatusInternalServerError}, nil
		})

		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, outcome.Attempts)
	})

	t.Run("cancelled context aborts the backoff wait", func(t *testing.T) {
		exec := NewExecutor(NewPolicy(3, 400))
		exec.sleep = func(ctx context.Context, _ time.Duration) error {
			return context.Canceled
		}

		outcome, _ := exec.Do(ctx, func(context.Context) (*Response, error) {
			return &Response{StatusCode: http.StatusInternalServerError}, nil
		})

		assert.False(t, outcome.OK)
		assert.Equal(t, integration.FailureNetwork, outcome.Category)
		assert.Equal(t, 1, outcome.Attempts)
	})

	t.Run("long response bodies are trimmed in the message", func(t *testing.T) {
		exec, _ := newTestExecutor(NewPolicy(0, 400))
		huge := make([]byte, 2000)
		for i := range huge {
			huge[i] = 'x'
		}

		outcome, _ := exec.Do(ctx, func(context.Context) (*Response, error) {
			return &Response{StatusCode: http.StatusBadRequest, Body: huge}, nil
		})

		assert.Len(t, outcome.Message, maxOutcomeMessageLen)
	})
}

func TestClassifyHTTP(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   integration.FailureCategory
	}{
		{name: "401 is auth", status: 401, want: integration.FailureAuth},
		{name: "403 is auth", status: 403, want: integration.FailureAuth},
		{name: "429 is rate limit", status: 429, want: integration.FailureRateLimit},
		{name: "500 is server", status: 500, want: integration.FailureServer},
		{name: "503 is server", status: 503, want: integration.FailureServer},
		{name: "400 with signature body is auth", status: 400, body: `{"message":"Invalid signature"}`, want: integration.FailureAuth},
		{name: "400 with throttle body is rate limit", status: 400, body: `{"message":"request throttled"}`, want: integration.FailureRateLimit},
		{name: "400 plain is invalid", status: 400, body: `{"message":"bad courier code"}`, want: integration.FailureInvalid},
		{name: "422 plain is invalid", status: 422, want: integration.FailureInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyHTTP(tt.status, tt.body))
		})
	}
}

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want integration.FailureCategory
	}{
		{name: "deadline exceeded is network", err: context.DeadlineExceeded, want: integration.FailureNetwork},
		{name: "connection refused is network", err: errors.New("dial tcp 10.0.0.1:443: connection refused"), want: integration.FailureNetwork},
		{name: "unexpected eof is network", err: errors.New("unexpected EOF"), want: integration.FailureNetwork},
		{name: "anything else is unknown", err: errors.New("some library bug"), want: integration.FailureUnknown},
		{name: "nil is unknown", err: nil, want: integration.FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyErr(tt.err))
		})
	}
}

func TestTryShapes(t *testing.T) {
	ctx := context.Background()

	shape := func(name string, fn RequestFunc) ShapeRequest {
		return ShapeRequest{Name: name, Do: fn}
	}
	fixed := func(status int, body string) RequestFunc {
		return func(context.Context) (*Response, error) {
			return &Response{StatusCode: status, Body: []byte(body)}, nil
		}
	}

	t.Run("first accepted shape wins", func(t *testing.T) {
		exec, _ := newTestExecutor(NewPolicy(0, 400))
		secondCalled := false

		outcome, _ := TryShapes(ctx, exec, []ShapeRequest{
			shape("a", fixed(http.StatusOK, `{}`)),
			shape("b", func(context.Context) (*Response, error) {
				secondCalled = true
				return &Response{StatusCode: http.StatusOK}, nil
			}),
		})

		assert.True(t, outcome.OK)
		assert.False(t, secondCalled)
	})

	t.Run("schema rejection falls through to the next shape", func(t *testing.T) {
		exec, _ := newTestExecutor(NewPolicy(0, 400))

		outcome, _ := TryShapes(ctx, exec, []ShapeRequest{
			shape("a", fixed(http.StatusBadRequest, `{"message":"unknown field"}`)),
			shape("b", fixed(http.StatusOK, `{}`)),
		})

		assert.True(t, outcome.OK)
		assert.Equal(t, 2, outcome.Attempts)
	})

	t.Run("server failure escalates without trying remaining shapes", func(t *testing.T) {
		exec, _ := newTestExecutor(NewPolicy(1, 400))
		secondCalled := false

		outcome, _ := TryShapes(ctx, exec, []ShapeRequest{
			shape("a", fixed(http.StatusInternalServerError, ``)),
			shape("b", func(context.Context) (*Response, error) {
				secondCalled = true
				return &Response{StatusCode: http.StatusOK}, nil
			}),
		})

		assert.False(t, outcome.OK)
		assert.Equal(t, integration.FailureServer, outcome.Category)
		assert.False(t, secondCalled)
		assert.Equal(t, 2, outcome.Attempts)
	})

	t.Run("last failure is authoritative when every shape fails", func(t *testing.T) {
		exec, _ := newTestExecutor(NewPolicy(0, 400))

		outcome, _ := TryShapes(ctx, exec, []ShapeRequest{
			shape("a", fixed(http.StatusBadRequest, `{"message":"unknown field a"}`)),
			shape("b", fixed(http.StatusBadRequest, `{"message":"unknown field b"}`)),
		})

		assert.False(t, outcome.OK)
		assert.Equal(t, integration.FailureInvalid, outcome.Category)
		assert.Contains(t, outcome.Message, "unknown field b")
		assert.Equal(t, 2, outcome.Attempts)
	})
}
