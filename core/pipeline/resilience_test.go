package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"Plain error is transient", errors.New("connection reset"), false},
		{"Explicit permanent error", backoff.Permanent(errors.New("bad")), true},
		{"Cancelled context", fmt.Errorf("call: %w", context.Canceled), true},
		{"Deadline exceeded", context.DeadlineExceeded, true},
		{"Server error is transient", &openai.Error{StatusCode: http.StatusBadGateway}, false},
		{"Rate limit is transient", &openai.Error{StatusCode: http.StatusTooManyRequests}, false},
		{"Request timeout is transient", &openai.Error{StatusCode: http.StatusRequestTimeout}, false},
		{"Exhausted quota is permanent", &openai.Error{StatusCode: http.StatusTooManyRequests, Code: "insufficient_quota"}, true},
		{"Unauthorized is permanent", &openai.Error{StatusCode: http.StatusUnauthorized}, true},
		{"Bad request is permanent", &openai.Error{StatusCode: http.StatusBadRequest}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.permanent, IsPermanent(tt.err))
		})
	}
}

func TestIsRequestError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"Bad request", &openai.Error{StatusCode: http.StatusBadRequest}, true},
		{"Payload too large", &openai.Error{StatusCode: http.StatusRequestEntityTooLarge}, true},
		{"Unprocessable entity", &openai.Error{StatusCode: http.StatusUnprocessableEntity}, true},
		{"Exhausted quota", &openai.Error{StatusCode: http.StatusBadRequest, Type: "insufficient_quota"}, false},
		{"Unauthorized", &openai.Error{StatusCode: http.StatusUnauthorized}, false},
		{"Server error", &openai.Error{StatusCode: http.StatusInternalServerError}, false},
		{"Plain error", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRequestError(tt.err))
		})
	}
}

func TestResilienceDo(t *testing.T) {
	ctx := context.Background()

	t.Run("Transient failures are retried until success", func(t *testing.T) {
		r := NewResilience("test-retry-success", 3, time.Millisecond)
		calls := 0

		err := r.Do(ctx, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("Retries are bounded", func(t *testing.T) {
		r := NewResilience("test-retry-bounded", 2, time.Millisecond)
		calls := 0

		err := r.Do(ctx, func(ctx context.Context) error {
			calls++
			return errors.New("still failing")
		})

		require.Error(t, err)
		assert.Equal(t, "still failing", err.Error())
		assert.Equal(t, 3, calls, "Expected first attempt plus two retries")
	})

	t.Run("Permanent failures are not retried", func(t *testing.T) {
		r := NewResilience("test-permanent", 3, time.Millisecond)
		calls := 0
		quota := &openai.Error{StatusCode: http.StatusTooManyRequests, Code: "insufficient_quota"}

		err := r.Do(ctx, func(ctx context.Context) error {
			calls++
			return quota
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)
		var apiErr *openai.Error
		assert.ErrorAs(t, err, &apiErr)
	})

	t.Run("Open breaker rejects calls without running them", func(t *testing.T) {
		r := NewResilience("test-breaker", 0, time.Millisecond)
		for i := 0; i < 5; i++ {
			_ = r.Do(ctx, func(ctx context.Context) error { return errors.New("down") })
		}
		require.Equal(t, gobreaker.StateOpen, r.State())

		called := false
		err := r.Do(ctx, func(ctx context.Context) error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.False(t, called)
	})

	t.Run("Rejected requests do not open the breaker", func(t *testing.T) {
		r := NewResilience("test-bad-request", 0, time.Millisecond)
		tooLarge := &openai.Error{StatusCode: http.StatusBadRequest, Code: "context_length_exceeded"}
		for i := 0; i < 6; i++ {
			err := r.Do(ctx, func(ctx context.Context) error { return tooLarge })
			require.Error(t, err)
		}
		assert.Equal(t, gobreaker.StateClosed, r.State())

		called := false
		err := r.Do(ctx, func(ctx context.Context) error {
			called = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("Exhausted quota opens the breaker", func(t *testing.T) {
		r := NewResilience("test-quota-breaker", 0, time.Millisecond)
		quota := &openai.Error{StatusCode: http.StatusTooManyRequests, Code: "insufficient_quota"}
		for i := 0; i < 5; i++ {
			_ = r.Do(ctx, func(ctx context.Context) error { return quota })
		}
		assert.Equal(t, gobreaker.StateOpen, r.State())
	})

	t.Run("Cancellation does not open the breaker", func(t *testing.T) {
		r := NewResilience("test-cancel", 0, time.Millisecond)
		for i := 0; i < 6; i++ {
			_ = r.Do(ctx, func(ctx context.Context) error { return context.Canceled })
		}
		assert.Equal(t, gobreaker.StateClosed, r.State())
	})
}
