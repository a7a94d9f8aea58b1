package config

const (
	defaultTMDBBaseURL            = "https://api.themoviedb.org/3"
	defaultRequestTimeoutSeconds  = 10
	defaultCacheTTLSeconds        = 300
	defaultCacheMaxEntries        = 1024
	defaultRateLimitRequests      = 40
	defaultRateLimitWindowSeconds = 10
	defaultMaxAttempts            = 3
	defaultInitialBackoffSeconds  = 1
	defaultMaxBackoffSeconds      = 60
	defaultServerBind             = "127.0.0.1:8000"
	defaultMCPPath                = "/mcp"
	defaultLogDir                 = "~/.local/share/filmscout/logs"
	defaultStateDir               = "~/.local/share/filmscout"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		TMDB: TMDB{
			BaseURL:                defaultTMDBBaseURL,
			RequestTimeoutSeconds:  defaultRequestTimeoutSeconds,
			CacheTTLSeconds:        defaultCacheTTLSeconds,
			CacheMaxEntries:        defaultCacheMaxEntries,
			RateLimitRequests:      defaultRateLimitRequests,
			RateLimitWindowSeconds: defaultRateLimitWindowSeconds,
			MaxAttempts:            defaultMaxAttempts,
			InitialBackoffSeconds:  defaultInitialBackoffSeconds,
			MaxBackoffSeconds:      defaultMaxBackoffSeconds,
			CoalesceRequests:       true,
		},
		Server: Server{
			Bind:       defaultServerBind,
			MCPEnabled: true,
			MCPPath:    defaultMCPPath,
		},
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
