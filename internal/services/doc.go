// Package services defines shared utilities consumed by the catalog client,
// the tool adapters, and the outward-facing servers.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper so every failure carries
//     one of the tool error kinds (ValidationError, NotFound, RateLimited,
//     UpstreamError, TransportError, MalformedResponse).
//   - KindOf, UserMessage, and HTTPStatus, which translate those markers into
//     the tagged error envelope, end-user wording, and HTTP status codes.
//   - Context helpers that stamp request and tool identifiers for logging.
//
// Use these helpers when wiring new tools so error handling and observability
// stay uniform across transports.
package services
