package media

import (
	"context"
	"encoding/json"
	"fmt"

	"shrinkray/internal/media/ffprobe"
)

// Probe holds read-only quality facts about a source file. Nil fields are
// unknown; only confident, positive readings are populated.
type Probe struct {
	BitrateKbps     *int     `json:"bitrate_kbps,omitempty"`
	SampleRateHz    *int     `json:"sample_rate_hz,omitempty"`
	ChannelCount    *int     `json:"channel_count,omitempty"`
	PixelWidth      *int     `json:"pixel_width,omitempty"`
	PixelHeight     *int     `json:"pixel_height,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	DetectedFormat  string   `json:"detected_format,omitempty"`
	SizeBytes       *int64   `json:"size_bytes,omitempty"`
}

// Empty reports whether nothing at all is known about the source.
func (p Probe) Empty() bool {
	return p.BitrateKbps == nil &&
		p.SampleRateHz == nil &&
		p.ChannelCount == nil &&
		p.PixelWidth == nil &&
		p.PixelHeight == nil &&
		p.DurationSeconds == nil &&
		p.DetectedFormat == "" &&
		p.SizeBytes == nil
}

// Duration returns the probed duration or 0 when unknown.
func (p Probe) Duration() float64 {
	if p.DurationSeconds == nil {
		return 0
	}
	return *p.DurationSeconds
}

// Marshal serializes the probe for queue persistence.
func (p Probe) Marshal() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal probe: %w", err)
	}
	return string(raw), nil
}

// UnmarshalProbe restores a probe from its persisted form. An empty payload
// yields the all-absent probe.
func UnmarshalProbe(raw string) (Probe, error) {
	if raw == "" {
		return Probe{}, nil
	}
	var p Probe
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Probe{}, fmt.Errorf("unmarshal probe: %w", err)
	}
	return p, nil
}

// ProbeFile inspects a source file and converts the findings into a Probe.
// Inspection failure is not an error: the all-absent probe is returned and
// the caller decides how loudly to report it.
func ProbeFile(ctx context.Context, ffprobeBinary, path string) Probe {
	result, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return Probe{}
	}
	return ProbeFromResult(result)
}

// ProbeFromResult extracts confident readings from an ffprobe result.
func ProbeFromResult(result ffprobe.Result) Probe {
	var p Probe
	p.DetectedFormat = result.Format.FormatName

	if duration := result.DurationSeconds(); duration > 0 {
		p.DurationSeconds = &duration
	}
	if size := result.SizeBytes(); size > 0 {
		p.SizeBytes = &size
	}

	if audio := result.FirstAudioStream(); audio != nil {
		if rate := audio.SampleRateHz(); rate > 0 {
			p.SampleRateHz = &rate
		}
		if audio.Channels > 0 {
			channels := audio.Channels
			p.ChannelCount = &channels
		}
	}

	if video := result.FirstVideoStream(); video != nil {
		if video.Width > 0 && video.Height > 0 {
			width, height := video.Width, video.Height
			p.PixelWidth = &width
			p.PixelHeight = &height
		}
	}

	// Prefer the audio stream's own rate; the container rate mixes audio
	// and video together, which is useless as an audio-bitrate reading.
	// Either way only a positive reading counts.
	var bps int64
	if audio := result.FirstAudioStream(); audio != nil {
		bps = audio.BitRateBps()
	}
	if bps <= 0 {
		bps = result.BitRate()
	}
	if bps > 0 {
		kbps := int(bps / 1000)
		if kbps > 0 {
			p.BitrateKbps = &kbps
		}
	}
	return p
}
