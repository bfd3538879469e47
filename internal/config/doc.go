// Package config loads, normalizes, and validates bif configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the BIF_LOG_LEVEL environment override. Invalid
// classifier settings are reported here, before any file is scanned.
package config
