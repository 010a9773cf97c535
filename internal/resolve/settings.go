package resolve

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TierOriginal is shared by every tier type and means "keep the source value".
const TierOriginal = "original"

// BitrateTier is a caller-selectable audio bitrate ceiling.
type BitrateTier string

const (
	Bitrate64k  BitrateTier = "64k"
	Bitrate96k  BitrateTier = "96k"
	Bitrate128k BitrateTier = "128k"
	Bitrate192k BitrateTier = "192k"
	Bitrate256k BitrateTier = "256k"
	Bitrate320k BitrateTier = "320k"
	BitrateOrig BitrateTier = TierOriginal
)

var bitrateKbps = map[BitrateTier]int{
	Bitrate64k:  64,
	Bitrate96k:  96,
	Bitrate128k: 128,
	Bitrate192k: 192,
	Bitrate256k: 256,
	Bitrate320k: 320,
	BitrateOrig: 0,
}

// Kbps returns the numeric value for the tier; 0 for "original".
func (t BitrateTier) Kbps() int { return bitrateKbps[t] }

// ParseBitrateTier converts a config/CLI string into a tier.
func ParseBitrateTier(value string) (BitrateTier, bool) {
	tier := BitrateTier(strings.ToLower(strings.TrimSpace(value)))
	_, ok := bitrateKbps[tier]
	return tier, ok
}

// SampleRateTier is a caller-selectable sample-rate ceiling.
type SampleRateTier string

const (
	SampleRate22050 SampleRateTier = "22050"
	SampleRate44100 SampleRateTier = "44100"
	SampleRate48000 SampleRateTier = "48000"
	SampleRateOrig  SampleRateTier = TierOriginal
)

var sampleRateHz = map[SampleRateTier]int{
	SampleRate22050: 22050,
	SampleRate44100: 44100,
	SampleRate48000: 48000,
	SampleRateOrig:  0,
}

// Hz returns the numeric value for the tier; 0 for "original".
func (t SampleRateTier) Hz() int { return sampleRateHz[t] }

// ParseSampleRateTier converts a config/CLI string into a tier.
func ParseSampleRateTier(value string) (SampleRateTier, bool) {
	tier := SampleRateTier(strings.ToLower(strings.TrimSpace(value)))
	_, ok := sampleRateHz[tier]
	return tier, ok
}

// ChannelTier is a caller-selectable channel-count ceiling.
type ChannelTier string

const (
	ChannelMono   ChannelTier = "mono"
	ChannelStereo ChannelTier = "stereo"
	ChannelOrig   ChannelTier = TierOriginal
)

var channelCount = map[ChannelTier]int{
	ChannelMono:   1,
	ChannelStereo: 2,
	ChannelOrig:   0,
}

// Count returns the numeric value for the tier; 0 for "original".
func (t ChannelTier) Count() int { return channelCount[t] }

// ParseChannelTier converts a config/CLI string into a tier.
func ParseChannelTier(value string) (ChannelTier, bool) {
	tier := ChannelTier(strings.ToLower(strings.TrimSpace(value)))
	_, ok := channelCount[tier]
	return tier, ok
}

// ResolutionTier is a caller-selectable resolution ceiling.
type ResolutionTier string

const (
	Resolution480p  ResolutionTier = "480p"
	Resolution720p  ResolutionTier = "720p"
	Resolution1080p ResolutionTier = "1080p"
	Resolution1440p ResolutionTier = "1440p"
	Resolution2160p ResolutionTier = "2160p"
	ResolutionOrig  ResolutionTier = TierOriginal
)

var resolutionDims = map[ResolutionTier][2]int{
	Resolution480p:  {854, 480},
	Resolution720p:  {1280, 720},
	Resolution1080p: {1920, 1080},
	Resolution1440p: {2560, 1440},
	Resolution2160p: {3840, 2160},
	ResolutionOrig:  {0, 0},
}

// Dimensions returns the tier bounding box. ok is false for "original",
// which means no resizing at all.
func (t ResolutionTier) Dimensions() (width, height int, ok bool) {
	dims, known := resolutionDims[t]
	if !known || dims[0] == 0 {
		return 0, 0, false
	}
	return dims[0], dims[1], true
}

// ParseResolutionTier converts a config/CLI string into a tier.
func ParseResolutionTier(value string) (ResolutionTier, bool) {
	tier := ResolutionTier(strings.ToLower(strings.TrimSpace(value)))
	_, ok := resolutionDims[tier]
	return tier, ok
}

// TargetSettings is the immutable configuration snapshot a job carries from
// enqueue to completion. It is shared read-only across a batch; stages never
// mutate it.
type TargetSettings struct {
	AudioBitrate      BitrateTier    `json:"audio_bitrate"`
	SampleRate        SampleRateTier `json:"sample_rate"`
	Channels          ChannelTier    `json:"channels"`
	Resolution        ResolutionTier `json:"resolution"`
	Quality           float64        `json:"quality"`
	OutputFormat      string         `json:"output_format,omitempty"`
	TrimStart         float64        `json:"trim_start,omitempty"`
	TrimEnd           float64        `json:"trim_end,omitempty"`
	FadeIn            float64        `json:"fade_in,omitempty"`
	FadeOut           float64        `json:"fade_out,omitempty"`
	PreserveMetadata  bool           `json:"preserve_metadata"`
	PreserveAnimation bool           `json:"preserve_animation"`
	HardwareAccel     bool           `json:"hardware_accel"`
}

// AllOriginalTiers reports whether every tier requests source passthrough.
func (s TargetSettings) AllOriginalTiers() bool {
	return s.AudioBitrate.Kbps() == 0 &&
		s.SampleRate.Hz() == 0 &&
		s.Channels.Count() == 0 &&
		s.Resolution == ResolutionOrig
}

// HasTrim reports whether the settings request a trim window.
func (s TargetSettings) HasTrim() bool {
	return s.TrimStart > 0 || s.TrimEnd > 0
}

// HasFades reports whether any fade filter is requested.
func (s TargetSettings) HasFades() bool {
	return s.FadeIn > 0 || s.FadeOut > 0
}

// Marshal serializes the settings for queue persistence.
func (s TargetSettings) Marshal() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal settings: %w", err)
	}
	return string(raw), nil
}

// UnmarshalSettings restores settings from their persisted form.
func UnmarshalSettings(raw string) (TargetSettings, error) {
	var s TargetSettings
	if raw == "" {
		return s, fmt.Errorf("unmarshal settings: empty payload")
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return s, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}
