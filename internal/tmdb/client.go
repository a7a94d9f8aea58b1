package tmdb

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"filmscout/internal/config"
	"filmscout/internal/logging"
	"filmscout/internal/services"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultCacheTTL      = 300 * time.Second
	defaultCacheCapacity = 1024
	defaultRateLimit     = 40
	defaultRateWindow    = 10 * time.Second
)

// Observer receives dispatcher events. The metrics package implements it.
type Observer interface {
	ObserveCache(hit bool)
	ObserveUpstream(route string, status int, latency time.Duration)
	ObserveRateWait(wait time.Duration)
	ObserveRetry(route, reason string)
}

type nopObserver struct{}

func (nopObserver) ObserveCache(bool)                          {}
func (nopObserver) ObserveUpstream(string, int, time.Duration) {}
func (nopObserver) ObserveRateWait(time.Duration)              {}
func (nopObserver) ObserveRetry(string, string)                {}

// Client is the resilient catalog client. It owns the rate window and the
// response cache for its whole lifetime; share one instance per process.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	clock      Clock
	sleep      Sleeper
	logger     *slog.Logger
	observer   Observer

	cacheTTL      time.Duration
	cacheCapacity int
	rateLimit     int
	rateWindow    time.Duration
	policy        RetryPolicy
	coalesce      bool
	timeout       time.Duration

	window *RateWindow
	cache  *ResponseCache
	retry  *retrier
	flight singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request transport timeout. It is applied to a
// private copy of the HTTP client, so a client passed to WithHTTPClient is
// never modified and option order does not matter.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLanguage sets the default language parameter sent on every request
// that does not carry its own.
func WithLanguage(language string) Option {
	return func(c *Client) {
		c.language = strings.TrimSpace(language)
	}
}

// WithClock injects the time source used by the rate window, cache, and
// Retry-After date parsing.
func WithClock(clock Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithSleeper overrides how the client waits for rate-limit slots and retry
// backoff (useful for tests).
func WithSleeper(sleeper Sleeper) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleep = sleeper
		}
	}
}

// WithLogger attaches a logger; the client logs under the "tmdb" component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver attaches a dispatcher event observer.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithRateLimit sets the sliding-window budget.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(c *Client) {
		if requests > 0 && window > 0 {
			c.rateLimit = requests
			c.rateWindow = window
		}
	}
}

// WithCache sets the response cache TTL and capacity.
func WithCache(ttl time.Duration, capacity int) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
		if capacity > 0 {
			c.cacheCapacity = capacity
		}
	}
}

// WithCoalescing toggles sharing one upstream fetch between concurrent
// identical requests.
func WithCoalescing(enabled bool) Option {
	return func(c *Client) {
		c.coalesce = enabled
	}
}

// New creates a catalog client. A missing credential is a configuration error.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "new client", "api key required", nil)
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "new client", "base url required", nil)
	}
	if parsed, err := url.Parse(baseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "new client", fmt.Sprintf("invalid base url %q", baseURL), err)
	}

	client := &Client{
		apiKey:        apiKey,
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		clock:         systemClock{},
		sleep:         sleepContext,
		logger:        logging.NewNop(),
		observer:      nopObserver{},
		cacheTTL:      defaultCacheTTL,
		cacheCapacity: defaultCacheCapacity,
		rateLimit:     defaultRateLimit,
		rateWindow:    defaultRateWindow,
		policy:        DefaultRetryPolicy(),
		coalesce:      true,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.timeout > 0 {
		hc := *client.httpClient
		hc.Timeout = client.timeout
		client.httpClient = &hc
	}
	client.logger = logging.NewComponentLogger(client.logger, "tmdb")

	cache, err := NewResponseCache(client.cacheTTL, client.cacheCapacity, client.clock)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "new client", "", err)
	}
	client.cache = cache
	client.window = NewRateWindow(client.rateLimit, client.rateWindow, client.clock, client.sleep)
	client.retry = &retrier{
		policy: client.policy,
		sleep:  client.sleep,
		logger: client.logger,
		onRetry: func(endpoint string, event retryEvent) {
			client.observer.ObserveRetry(routeLabel(endpoint), event.Reason)
		},
	}
	return client, nil
}

// NewFromConfig builds a client from the [tmdb] configuration section.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "new client", "config required", nil)
	}
	initial, maxBackoff := cfg.Backoff()
	base := []Option{
		WithLanguage(cfg.TMDB.Language),
		WithTimeout(cfg.RequestTimeout()),
		WithCache(cfg.CacheTTL(), cfg.TMDB.CacheMaxEntries),
		WithRateLimit(cfg.TMDB.RateLimitRequests, cfg.RateLimitWindow()),
		WithRetryPolicy(RetryPolicy{
			MaxAttempts:    cfg.TMDB.MaxAttempts,
			InitialBackoff: initial,
			MaxBackoff:     maxBackoff,
		}),
		WithCoalescing(cfg.TMDB.CoalesceRequests),
	}
	return New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, append(base, opts...)...)
}

// Stats is a point-in-time view of the client's shared state.
type Stats struct {
	CacheEntries   int `json:"cache_entries"`
	WindowInFlight int `json:"window_in_flight"`
	WindowLimit    int `json:"window_limit"`
}

// Stats reports cache occupancy and rate window usage.
func (c *Client) Stats() Stats {
	return Stats{
		CacheEntries:   c.cache.Len(),
		WindowInFlight: c.window.InFlight(),
		WindowLimit:    c.rateLimit,
	}
}

// Close releases idle transport connections. The cache and rate window are
// left intact.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
