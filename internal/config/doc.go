// Package config loads, normalizes, and validates pagesmith configuration data.
//
// It supplies repository defaults (A4 at 96 dpi, twenty localization targets),
// expands user paths including tilde shortcuts, reads TOML files, and honours
// environment fallbacks such as OPENROUTER_API_KEY, optionally sourced from a
// .env file. The Config type centralizes every knob the CLI and pipeline need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
