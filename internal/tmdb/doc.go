// Package tmdb is the resilient client for The Movie Database REST API.
//
// Every outbound call flows through Client.Dispatch, which fingerprints the
// request, serves live cache entries, gates admission through a sliding
// 40-per-10s window, and retries transient failures with capped exponential
// backoff. Failures are tagged with the services error markers so callers can
// switch on services.KindOf instead of parsing text. The typed endpoint
// methods (Search, Details, Recommendations, Discover, Genres) decode the raw
// payloads into provider models and tolerate missing optional fields.
//
// A Client owns its rate window and response cache. Construct one per process
// and share it; tests construct fresh clients with an injected clock and
// sleeper so waits are observable without real sleeps.
package tmdb
