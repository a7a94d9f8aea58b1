// Command filmscout looks up movies and TV series in The Movie Database from
// the terminal and runs the tool server.
//
// The catalog commands (search, details, recommend, discover, genres) talk to
// TMDB directly through the same resilient client the server uses, so rate
// limiting, caching, and retries behave identically. Pass --json for the raw
// tool payloads instead of tables.
package main
