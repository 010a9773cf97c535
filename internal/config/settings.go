package config

import "shrinkray/internal/resolve"

// DefaultSettings converts the configured targets into per-job target
// settings. Callers adjust individual fields before enqueueing. Validate
// must have passed, so tier parsing cannot fail here.
func (c *Config) DefaultSettings() resolve.TargetSettings {
	bitrate, _ := resolve.ParseBitrateTier(c.Targets.AudioBitrate)
	sampleRate, _ := resolve.ParseSampleRateTier(c.Targets.SampleRate)
	channels, _ := resolve.ParseChannelTier(c.Targets.Channels)
	resolution, _ := resolve.ParseResolutionTier(c.Targets.Resolution)

	return resolve.TargetSettings{
		AudioBitrate:     bitrate,
		SampleRate:       sampleRate,
		Channels:         channels,
		Resolution:       resolution,
		Quality:          c.Targets.Quality,
		PreserveMetadata: c.Targets.PreserveMetadata,
		HardwareAccel:    c.FFmpeg.HardwareAccel,
	}
}
