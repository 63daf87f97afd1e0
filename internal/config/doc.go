// Package config loads, normalizes, and validates mseedcut configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MSEEDCUT_INPUT_DIR. The Config type centralizes the archive discovery,
// encoding, journal, and logging knobs so the CLI resolves them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical encoding names, and clear validation errors.
package config
