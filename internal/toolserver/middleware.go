package toolserver

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"filmscout/internal/services"
	"filmscout/internal/tools"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

// authMiddleware returns a middleware that validates bearer tokens.
// If token is empty, no authentication is required and all requests pass through.
// Otherwise, requests must include "Authorization: Bearer <token>" header and
// rejected requests get the JSON failure envelope.
func (s *Server) authMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		supplied, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			w.Header().Set("WWW-Authenticate", "Bearer")
			s.writeError(w, http.StatusUnauthorized, tools.ToolError{
				Kind:    services.KindUnauthorized,
				Message: services.UserMessage(services.KindUnauthorized),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware attaches a correlation id to the request context and
// echoes it back. A well-formed incoming X-Request-ID is reused.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}
