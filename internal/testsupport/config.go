// Package testsupport provides shared helpers for package tests: temp-dir
// configurations, queue store setup, and sized fixture files.
package testsupport

import (
	"path/filepath"
	"testing"

	"shrinkray/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithQuality overrides the default quality target on the test config.
func WithQuality(quality float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Targets.Quality = quality
	}
}

// WithBinaries overrides the ffmpeg and ffprobe binaries on the test config,
// typically pointing at stubs created with WriteStubBinary.
func WithBinaries(ffmpeg, ffprobe string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.FFmpeg.FFmpegBinary = ffmpeg
		cfg.FFmpeg.FFprobeBinary = ffprobe
	}
}
