package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstream          = errors.New("upstream error")
	ErrTransport         = errors.New("transport error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrConfiguration     = errors.New("configuration error")
)

// ErrorKind is the tag surfaced to tool callers in place of raw error text.
type ErrorKind string

const (
	KindValidation        ErrorKind = "ValidationError"
	KindNotFound          ErrorKind = "NotFound"
	KindRateLimited       ErrorKind = "RateLimited"
	KindUpstream          ErrorKind = "UpstreamError"
	KindTransport         ErrorKind = "TransportError"
	KindMalformedResponse ErrorKind = "MalformedResponse"
	KindInternal          ErrorKind = "InternalError"
	KindUnauthorized      ErrorKind = "Unauthorized"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf classifies err by the marker it carries. A nil error has no kind;
// errors without a known marker are reported as InternalError.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	default:
		return KindInternal
	}
}

// UserMessage returns the plain-language explanation shown to end users for a
// failure of the given kind. It never includes transport details.
func UserMessage(kind ErrorKind) string {
	switch kind {
	case KindValidation:
		return "that request didn't look right; check the title type, year, or filters"
	case KindNotFound:
		return "couldn't find that title"
	case KindRateLimited:
		return "the movie database is busy right now; try again in a few seconds"
	case KindUpstream:
		return "the movie database had a problem answering; try again shortly"
	case KindTransport:
		return "couldn't reach the movie database; check the network connection"
	case KindMalformedResponse:
		return "the movie database sent back something unexpected"
	case KindUnauthorized:
		return "missing or invalid bearer token"
	case "":
		return ""
	default:
		return "something went wrong while looking that up"
	}
}

// HTTPStatus maps an error kind to the status code used by the tool server.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case "":
		return http.StatusOK
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstream, KindTransport, KindMalformedResponse:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
