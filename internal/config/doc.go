// Package config loads, normalizes, and validates filmscout configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and FILMSCOUT_API_TOKEN. The catalog credential is mandatory:
// Load fails when neither the file nor the environment supplies it.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
