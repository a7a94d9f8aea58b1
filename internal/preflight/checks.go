package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"filmscout/internal/config"
	"filmscout/internal/services"
	"filmscout/internal/tmdb"
)

const catalogCheckTimeout = 10 * time.Second

// CheckConfig runs configuration validation.
func CheckConfig(cfg *config.Config) Result {
	const name = "Configuration"
	if err := cfg.Validate(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "valid"}
}

// CheckCredential reports whether a TMDB credential is configured.
func CheckCredential(apiKey string) Result {
	const name = "TMDB credential"
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing (set tmdb.api_key or TMDB_API_KEY)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckCatalog fetches the movie genre list with a single attempt to verify
// that the endpoint is reachable and the credential is accepted.
func CheckCatalog(ctx context.Context, cfg *config.Config) Result {
	const name = "TMDB API"

	checkCtx, cancel := context.WithTimeout(ctx, catalogCheckTimeout)
	defer cancel()

	initial, maxBackoff := cfg.Backoff()
	client, err := tmdb.NewFromConfig(cfg,
		tmdb.WithRetryPolicy(tmdb.RetryPolicy{MaxAttempts: 1, InitialBackoff: initial, MaxBackoff: maxBackoff}),
		tmdb.WithCoalescing(false),
	)
	if err != nil {
		return Result{Name: name, Detail: "client setup failed"}
	}
	defer client.Close()

	list, err := client.Genres(checkCtx, tmdb.MediaMovie)
	if err != nil {
		return Result{Name: name, Detail: summarizeCatalogError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (%d movie genres)", cfg.TMDB.BaseURL, len(list.Genres))}
}

// CheckBind verifies that the tool server address can be bound. A running
// filmscoutd holds the port, so this fails while the daemon is up.
func CheckBind(bind string) Result {
	const name = "Tool server bind"
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return Result{Name: name, Detail: "server.bind is empty"}
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", bind, err)}
	}
	_ = listener.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s available", bind)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeCatalogError explains a failed probe without echoing request URLs,
// which carry the credential.
func summarizeCatalogError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (TMDB unresponsive)"
	}
	if code, ok := tmdb.StatusCode(err); ok {
		switch code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "auth failed (invalid api key)"
		default:
			return fmt.Sprintf("health check failed (%d)", code)
		}
	}
	return services.UserMessage(services.KindOf(err))
}
