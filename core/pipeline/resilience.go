package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
	"github.com/siherrmann/modmuse/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Resilience guards calls to a remote capability with bounded exponential
// backoff and a circuit breaker. Permanent failures are not retried.
type Resilience struct {
	name            string
	breaker         *gobreaker.CircuitBreaker[interface{}]
	maxRetries      uint64
	initialInterval time.Duration
}

// NewResilience creates a guard named name.
// The breaker opens after 5 consecutive failures and probes again after 30 seconds.
func NewResilience(name string, maxRetries uint64, initialInterval time.Duration) *Resilience {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	breaker := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Caller side cancellation and rejected inputs say nothing about the remote capability.
			return err == nil || errors.Is(err, context.Canceled) || isRequestError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state change", slog.String("breaker", name), slog.String("from", from.String()), slog.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Resilience{
		name:            name,
		breaker:         breaker,
		maxRetries:      maxRetries,
		initialInterval: initialInterval,
	}
}

// Do runs fn until it succeeds, fails permanently or the retries are used up.
// The returned error is the last error of fn, unwrapped from backoff.Permanent.
func (r *Resilience) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialInterval
	policy.MaxInterval = 10 * r.initialInterval
	policy.MaxElapsedTime = 0

	operation := func() error {
		_, err := r.breaker.Execute(func() (interface{}, error) {
			return nil, fn(ctx)
		})
		if err == nil {
			metrics.UnderstandingCalls.WithLabelValues(r.name, "success").Inc()
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UnderstandingCalls.WithLabelValues(r.name, "rejected").Inc()
			return backoff.Permanent(err)
		}

		metrics.UnderstandingCalls.WithLabelValues(r.name, "failure").Inc()
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return err
		}
		if IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx))
}

// State returns the current breaker state.
func (r *Resilience) State() gobreaker.State {
	return r.breaker.State()
}

// IsPermanent reports whether err must not be retried.
// Cancellation, exhausted quota and client errors other than timeouts and rate limits are permanent.
func IsPermanent(err error) bool {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == "insufficient_quota" || apiErr.Type == "insufficient_quota" {
			return true
		}
		switch {
		case apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode == http.StatusConflict,
			apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode >= http.StatusInternalServerError:
			return false
		case apiErr.StatusCode >= http.StatusBadRequest:
			return true
		}
	}

	return false
}

// isRequestError reports whether the capability rejected this particular request,
// e.g. a malformed or oversized prompt. Exhausted quota is not a request error.
func isRequestError(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == "insufficient_quota" || apiErr.Type == "insufficient_quota" {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
