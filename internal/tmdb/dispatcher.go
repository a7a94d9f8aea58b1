package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"filmscout/internal/logging"
	"filmscout/internal/services"
)

const maxResponseBytes = 8 << 20

// Dispatch performs one catalog call and returns the raw JSON payload.
//
// The sequence is fingerprint, cache lookup (only when useCache is set),
// rate-window admission, retry-wrapped transport, then a cache write. The
// write happens on every success so a bypassing read still warms the cache.
// The credential is added to the query string at transport time and never
// reaches the fingerprint or the logs.
func (c *Client) Dispatch(ctx context.Context, method, endpoint string, params url.Values, useCache bool) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	endpoint = "/" + strings.Trim(strings.TrimSpace(endpoint), "/")
	params = c.requestParams(params)
	fingerprint := Fingerprint(endpoint, params)
	logger := logging.WithContext(ctx, c.logger)

	if useCache {
		if payload, ok := c.cache.Get(fingerprint); ok {
			c.observer.ObserveCache(true)
			logger.Debug("catalog cache hit", logging.String(logging.FieldEndpoint, endpoint))
			return payload, nil
		}
		c.observer.ObserveCache(false)
	}

	if !c.coalesce {
		return c.fetch(ctx, method, endpoint, fingerprint, params)
	}
	// The shared fetch must outlive any one waiter's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(method+" "+fingerprint, func() (any, error) {
		return c.fetch(flightCtx, method, endpoint, fingerprint, params)
	})
	select {
	case <-ctx.Done():
		return nil, services.Wrap(services.ErrTransport, "tmdb", endpoint, "request abandoned", ctx.Err())
	case res := <-ch:
		if res.Shared {
			logger.Debug("catalog request coalesced", logging.String(logging.FieldEndpoint, endpoint))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		payload, _ := res.Val.(json.RawMessage)
		return payload, nil
	}
}

func (c *Client) requestParams(params url.Values) url.Values {
	out := make(url.Values, len(params)+1)
	for key, values := range params {
		if key == credentialParam || len(values) == 0 {
			continue
		}
		out[key] = append([]string(nil), values...)
	}
	if c.language != "" && out.Get("language") == "" {
		out.Set("language", c.language)
	}
	return out
}

func (c *Client) fetch(ctx context.Context, method, endpoint, fingerprint string, params url.Values) (json.RawMessage, error) {
	payload, err := c.retry.execute(ctx, endpoint, func(ctx context.Context) (json.RawMessage, error) {
		waited, err := c.window.Admit(ctx)
		if waited > 0 {
			c.observer.ObserveRateWait(waited)
			logging.WarnWithContext(
				logging.WithContext(ctx, c.logger),
				"catalog rate window full; waited for a slot",
				"catalog_rate_wait",
				logging.String(logging.FieldEndpoint, endpoint),
				logging.Duration("waited", waited),
				logging.String(logging.FieldErrorHint, "request volume is near the provider budget"),
			)
		}
		if err != nil {
			return nil, err
		}
		return c.roundTrip(ctx, method, endpoint, params)
	})
	if err != nil {
		return nil, err
	}
	c.cache.Put(fingerprint, payload)
	return payload, nil
}

// roundTrip issues exactly one HTTP request.
func (c *Client) roundTrip(ctx context.Context, method, endpoint string, params url.Values) (json.RawMessage, error) {
	query := make(url.Values, len(params)+1)
	for key, values := range params {
		query[key] = values
	}
	query.Set(credentialParam, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", redactURLError(err))
	}
	req.Header.Set("Accept", "application/json")

	route := routeLabel(endpoint)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.observer.ObserveUpstream(route, 0, latency)
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, redactURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.observer.ObserveUpstream(route, resp.StatusCode, latency)
	logging.WithContext(ctx, c.logger).Debug("catalog request",
		logging.String(logging.FieldEndpoint, endpoint),
		logging.String("method", method),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
	)
	if err != nil {
		return nil, fmt.Errorf("read body (latency=%v): %w", latency, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"), c.clock.Now())
		return nil, &statusError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RetryAfter: retryAfter,
		}
	}

	var payload json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &malformedError{err: err}
	}
	return payload, nil
}

// redactURLError strips the request URL, which carries the credential, from
// transport errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// decodePayload unmarshals a dispatcher payload into a provider model.
func decodePayload(endpoint string, payload json.RawMessage, target any) error {
	if err := json.Unmarshal(payload, target); err != nil {
		return services.Wrap(services.ErrMalformedResponse, "tmdb", endpoint, "unexpected payload shape", err)
	}
	return nil
}
