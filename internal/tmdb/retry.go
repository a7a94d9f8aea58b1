package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"filmscout/internal/logging"
	"filmscout/internal/services"
)

// RetryPolicy bounds the retry loop around a single catalog call.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy returns three attempts starting at one second, doubling,
// capped at sixty seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Second, MaxBackoff: 60 * time.Second}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}

// statusError is a non-2xx reply from the catalog.
type statusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *statusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, body)
}

// malformedError marks a 2xx body that is not valid JSON. It is never retried.
type malformedError struct {
	err error
}

func (e *malformedError) Error() string { return "decode body: " + e.err.Error() }

func (e *malformedError) Unwrap() error { return e.err }

// retryEvent describes one scheduled retry for logging and metrics.
type retryEvent struct {
	Attempt int
	Delay   time.Duration
	Reason  string
}

type retrier struct {
	policy  RetryPolicy
	sleep   Sleeper
	logger  *slog.Logger
	onRetry func(endpoint string, event retryEvent)
}

// execute runs call until it succeeds, fails non-retryably, or the policy is
// exhausted. Exhaustion surfaces RateLimited after repeated 429s, NotFound is
// returned on the first 404, any other status surfaces UpstreamError and
// connection-level failures TransportError.
func (r *retrier) execute(ctx context.Context, endpoint string, call func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	attempts := r.policy.attempts()
	backoff := r.policy.capDelay(r.policy.InitialBackoff)
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		payload, err := call(ctx)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		statusErr := asStatusError(err)
		var malformed *malformedError
		switch {
		case ctx.Err() != nil:
			return nil, services.Wrap(services.ErrTransport, "tmdb", endpoint, "request abandoned", ctx.Err())
		case errors.As(err, &malformed):
			return nil, services.Wrap(services.ErrMalformedResponse, "tmdb", endpoint, "unparseable response", err)
		case statusErr != nil && statusErr.StatusCode == http.StatusNotFound:
			return nil, services.Wrap(services.ErrNotFound, "tmdb", endpoint, "resource does not exist", err)
		}

		if attempt == attempts {
			break
		}

		delay := backoff
		reason := "transport"
		if statusErr != nil {
			reason = strconv.Itoa(statusErr.StatusCode)
			if statusErr.StatusCode == http.StatusTooManyRequests && statusErr.RetryAfter > 0 {
				delay = r.policy.capDelay(statusErr.RetryAfter)
			}
		}
		logging.WarnWithContext(
			logging.WithContext(ctx, r.logger),
			"catalog request failed; retrying",
			"catalog_retry",
			logging.String(logging.FieldEndpoint, endpoint),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Duration("delay", delay),
			logging.String("reason", reason),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "transient catalog failure; the request is retried automatically"),
		)
		if r.onRetry != nil {
			r.onRetry(endpoint, retryEvent{Attempt: attempt, Delay: delay, Reason: reason})
		}
		if err := r.sleep(ctx, delay); err != nil {
			return nil, services.Wrap(services.ErrTransport, "tmdb", endpoint, "request abandoned", err)
		}
		backoff = r.policy.capDelay(backoff * 2)
	}

	return nil, classifyExhausted(endpoint, attempts, lastErr)
}

func asStatusError(err error) *statusError {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr
	}
	return nil
}

// StatusCode reports the provider HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	if statusErr := asStatusError(err); statusErr != nil {
		return statusErr.StatusCode, true
	}
	return 0, false
}

func classifyExhausted(endpoint string, attempts int, err error) error {
	message := fmt.Sprintf("failed after %d attempts", attempts)
	if statusErr := asStatusError(err); statusErr != nil {
		if statusErr.StatusCode == http.StatusTooManyRequests {
			return services.Wrap(services.ErrRateLimited, "tmdb", endpoint, message, err)
		}
		return services.Wrap(services.ErrUpstream, "tmdb", endpoint, message, err)
	}
	return services.Wrap(services.ErrTransport, "tmdb", endpoint, message, err)
}

// parseRetryAfter accepts delta-seconds or an HTTP date relative to now.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := when.Sub(now)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
