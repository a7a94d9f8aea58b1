package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/filmscout/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'filmscout config init')", defaultPath)
	}
	parsed, err := url.Parse(c.TMDB.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("tmdb.base_url %q must be an absolute URL", c.TMDB.BaseURL)
	}
	if err := ensurePositiveMap(map[string]int{
		"tmdb.request_timeout_seconds":   c.TMDB.RequestTimeoutSeconds,
		"tmdb.cache_ttl_seconds":         c.TMDB.CacheTTLSeconds,
		"tmdb.cache_max_entries":         c.TMDB.CacheMaxEntries,
		"tmdb.rate_limit_requests":       c.TMDB.RateLimitRequests,
		"tmdb.rate_limit_window_seconds": c.TMDB.RateLimitWindowSeconds,
		"tmdb.max_attempts":              c.TMDB.MaxAttempts,
		"tmdb.initial_backoff_seconds":   c.TMDB.InitialBackoffSeconds,
		"tmdb.max_backoff_seconds":       c.TMDB.MaxBackoffSeconds,
	}); err != nil {
		return err
	}
	if c.TMDB.MaxBackoffSeconds < c.TMDB.InitialBackoffSeconds {
		return errors.New("tmdb.max_backoff_seconds must be at least tmdb.initial_backoff_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
