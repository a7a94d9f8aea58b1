// Package logging assembles the slog loggers used by the filmscout binaries.
//
// It owns the console and JSON handlers, the optional JSON tee into
// paths.log_dir, and context helpers that tag log lines with the request
// correlation id and the tool being served. Tests and wiring code that cannot
// fail use NewNop.
package logging
