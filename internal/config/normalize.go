package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Targets.AudioBitrate = strings.ToLower(strings.TrimSpace(c.Targets.AudioBitrate))
	c.Targets.SampleRate = strings.ToLower(strings.TrimSpace(c.Targets.SampleRate))
	c.Targets.Channels = strings.ToLower(strings.TrimSpace(c.Targets.Channels))
	c.Targets.Resolution = strings.ToLower(strings.TrimSpace(c.Targets.Resolution))

	c.FFmpeg.FFmpegBinary = strings.TrimSpace(c.FFmpeg.FFmpegBinary)
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
