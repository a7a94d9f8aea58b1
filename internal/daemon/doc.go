// Package daemon coordinates the long-running filmscout process.
//
// It wires configuration, logging, the catalog client, the tool service,
// metrics, and health statistics into a single lifecycle with flock-based
// locking to prevent multiple HTTP instances. The same wiring backs the stdio
// MCP mode, which skips the lock because MCP hosts spawn one process per
// session.
//
// Keep orchestration logic here: catalog behavior lives in tmdb and tool
// semantics in tools, while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
