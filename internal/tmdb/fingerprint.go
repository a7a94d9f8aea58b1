package tmdb

import (
	"net/url"
	"regexp"
	"strings"
)

const credentialParam = "api_key"

// Fingerprint derives the cache key for a request: the endpoint path followed
// by its parameters in key order. The credential never participates, so the
// key is identical regardless of insertion order or which key made the call.
func Fingerprint(endpoint string, params url.Values) string {
	endpoint = "/" + strings.Trim(strings.TrimSpace(endpoint), "/")
	if len(params) == 0 {
		return endpoint
	}
	clean := make(url.Values, len(params))
	for key, values := range params {
		if key == credentialParam {
			continue
		}
		clean[key] = values
	}
	encoded := clean.Encode()
	if encoded == "" {
		return endpoint
	}
	return endpoint + "?" + encoded
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// routeLabel collapses numeric path segments so metric labels stay bounded:
// /movie/603/recommendations becomes /movie/{id}/recommendations.
func routeLabel(endpoint string) string {
	return numericSegment.ReplaceAllString(endpoint, "/{id}$1")
}
