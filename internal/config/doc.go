// Package config loads, normalizes, and validates the TOML configuration
// controlling paths, default compression targets, ffmpeg integration, and
// workflow timing.
//
// Load applies repository defaults first, then overlays the config file when
// one exists, then normalizes paths (tilde expansion, absolute cleanup) and
// validates the result. Callers always receive a fully usable Config or an
// error explaining what to fix.
package config
