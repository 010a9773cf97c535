package config

import (
	"errors"
	"fmt"

	"shrinkray/internal/resolve"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTargets(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTargets() error {
	if _, ok := resolve.ParseBitrateTier(c.Targets.AudioBitrate); !ok {
		return fmt.Errorf("targets.audio_bitrate: unknown tier %q", c.Targets.AudioBitrate)
	}
	if _, ok := resolve.ParseSampleRateTier(c.Targets.SampleRate); !ok {
		return fmt.Errorf("targets.sample_rate: unknown tier %q", c.Targets.SampleRate)
	}
	if _, ok := resolve.ParseChannelTier(c.Targets.Channels); !ok {
		return fmt.Errorf("targets.channels: unknown tier %q", c.Targets.Channels)
	}
	if _, ok := resolve.ParseResolutionTier(c.Targets.Resolution); !ok {
		return fmt.Errorf("targets.resolution: unknown tier %q", c.Targets.Resolution)
	}
	if c.Targets.Quality < 0.1 || c.Targets.Quality > 1 {
		return errors.New("targets.quality must be between 0.1 and 1.0")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	for name, value := range map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	} {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Workflow.MinFreeSpaceGiB < 0 {
		return errors.New("workflow.min_free_space_gib must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
