package resolve

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"shrinkray/internal/media"
)

// EffectiveParams holds the resolved, never-upscaling parameters handed to
// the job builder. Zero values mean "leave the source value alone".
type EffectiveParams struct {
	BitrateKbps  int     `json:"bitrate_kbps,omitempty"`
	SampleRateHz int     `json:"sample_rate_hz,omitempty"`
	ChannelCount int     `json:"channel_count,omitempty"`
	TargetWidth  int     `json:"target_width,omitempty"`
	TargetHeight int     `json:"target_height,omitempty"`
	Quality      float64 `json:"quality"`

	VideoCodec string `json:"video_codec,omitempty"`
	AudioCodec string `json:"audio_codec,omitempty"`
	Container  string `json:"container"`

	// SourceFormat carries the probed container format so the builder can
	// detect format changes without re-reading the probe.
	SourceFormat string `json:"source_format,omitempty"`

	// CodecSubstituted records the observable decision to reroute a lossless
	// source to the lossy fallback codec. Callers surface it; it is never
	// silent.
	CodecSubstituted   bool   `json:"codec_substituted,omitempty"`
	SubstitutionReason string `json:"substitution_reason,omitempty"`
}

// FormatChanged reports whether the output container differs from the source.
func (p EffectiveParams) FormatChanged() bool {
	if p.Container == "" || p.SourceFormat == "" {
		return p.Container != "" && p.SourceFormat == ""
	}
	for _, name := range strings.Split(strings.ToLower(p.SourceFormat), ",") {
		if strings.TrimSpace(name) == p.Container {
			return false
		}
	}
	return true
}

// Marshal serializes the params for queue persistence.
func (p EffectiveParams) Marshal() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(raw), nil
}

// UnmarshalParams restores params from their persisted form.
func UnmarshalParams(raw string) (EffectiveParams, error) {
	var p EffectiveParams
	if raw == "" {
		return p, fmt.Errorf("unmarshal params: empty payload")
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("unmarshal params: %w", err)
	}
	return p, nil
}

// Resolve computes effective parameters from target settings and a
// best-effort probe. It is pure: no I/O, no failure modes. A malformed
// settings value is the caller's contract violation, not handled here.
func Resolve(kind media.Kind, settings TargetSettings, probe media.Probe) EffectiveParams {
	params := EffectiveParams{
		BitrateKbps:  Scalar(settings.AudioBitrate.Kbps(), probe.BitrateKbps),
		SampleRateHz: Scalar(settings.SampleRate.Hz(), probe.SampleRateHz),
		ChannelCount: Scalar(settings.Channels.Count(), probe.ChannelCount),
		Quality:      clampQuality(settings.Quality),
		SourceFormat: strings.ToLower(strings.TrimSpace(probe.DetectedFormat)),
	}
	params.TargetWidth, params.TargetHeight = Size(settings.Resolution, probe.PixelWidth, probe.PixelHeight)

	container := outputContainer(kind, settings, probe)
	switch kind {
	case media.KindAudio:
		codec, lossy := audioCodec(container)
		if !lossy && params.BitrateKbps > 0 && media.IsLosslessAudio(probe.DetectedFormat) {
			// A bitrate ceiling cannot apply to a lossless container;
			// reroute to the lossy fallback instead of silently ignoring
			// the caller's bitrate choice.
			params.CodecSubstituted = true
			params.SubstitutionReason = fmt.Sprintf(
				"lossless source %q cannot honor a %dkbps target; using %s",
				probe.DetectedFormat, params.BitrateKbps, fallbackAudioContainer)
			container = fallbackAudioContainer
			codec, _ = audioCodec(container)
		}
		params.AudioCodec = codec
	case media.KindVideo:
		params.VideoCodec, params.AudioCodec = videoCodecs(container)
	case media.KindImage:
		params.VideoCodec = imageCodec(container)
	}
	params.Container = container
	return params
}

// Scalar applies the non-upscaling rule to one quality parameter. The probed
// original wins only when it is present, positive, and strictly below the
// target; an absent or zero original never does. A zero target means the
// caller requested source passthrough and no constraint applies.
func Scalar(target int, original *int) int {
	if target <= 0 {
		return 0
	}
	if original != nil && *original > 0 && *original < target {
		return *original
	}
	return target
}

// Size computes the effective output dimensions for a resolution tier.
// Returns (0, 0) when no resize should happen: either the tier is
// "original" or the source already fits inside the tier's bounding box.
// Unknown source dimensions pass the tier box through unchanged.
func Size(tier ResolutionTier, originalWidth, originalHeight *int) (int, int) {
	targetWidth, targetHeight, bounded := tier.Dimensions()
	if !bounded {
		return 0, 0
	}
	if originalWidth == nil || originalHeight == nil || *originalWidth <= 0 || *originalHeight <= 0 {
		return targetWidth, targetHeight
	}
	scale := math.Min(
		float64(targetWidth)/float64(*originalWidth),
		float64(targetHeight)/float64(*originalHeight),
	)
	if scale >= 1 {
		return 0, 0
	}
	return evenDimension(float64(*originalWidth) * scale), evenDimension(float64(*originalHeight) * scale)
}

// evenDimension rounds to the nearest even integer. Codecs require even
// dimensions for chroma subsampling.
func evenDimension(value float64) int {
	even := int(math.Round(value/2)) * 2
	if even < 2 {
		return 2
	}
	return even
}

func clampQuality(q float64) float64 {
	if q < 0.1 {
		return 0.1
	}
	if q > 1 {
		return 1
	}
	return q
}

const fallbackAudioContainer = "mp3"

func outputContainer(kind media.Kind, settings TargetSettings, probe media.Probe) string {
	if format := strings.ToLower(strings.TrimSpace(settings.OutputFormat)); format != "" {
		return format
	}
	if detected := sourceContainer(kind, probe.DetectedFormat); detected != "" {
		return detected
	}
	switch kind {
	case media.KindAudio:
		return fallbackAudioContainer
	case media.KindVideo:
		return "mp4"
	default:
		return "jpeg"
	}
}

// sourceContainer maps an ffprobe format name (possibly a comma list) onto a
// single writable container name.
func sourceContainer(kind media.Kind, detected string) string {
	first := detected
	if idx := strings.IndexByte(detected, ','); idx >= 0 {
		first = detected[:idx]
	}
	first = strings.ToLower(strings.TrimSpace(first))
	switch first {
	case "":
		return ""
	case "mov":
		if kind == media.KindAudio {
			return "m4a"
		}
		return "mp4"
	case "matroska", "webm":
		if kind == media.KindVideo {
			return "mkv"
		}
		return first
	case "wave":
		return "wav"
	case "jpeg_pipe", "mjpeg":
		return "jpeg"
	case "png_pipe":
		return "png"
	case "webp_pipe":
		return "webp"
	default:
		return first
	}
}

// audioCodec returns the encoder for a container and whether it is a
// bitrate-controlled lossy codec.
func audioCodec(container string) (codec string, lossy bool) {
	switch container {
	case "mp3":
		return "libmp3lame", true
	case "m4a", "aac", "mp4":
		return "aac", true
	case "ogg":
		return "libvorbis", true
	case "opus":
		return "libopus", true
	case "flac":
		return "flac", false
	case "wav":
		return "pcm_s16le", false
	case "aiff", "aif":
		return "pcm_s16be", false
	default:
		return "libmp3lame", true
	}
}

func videoCodecs(container string) (video, audio string) {
	switch container {
	case "webm":
		return "libvpx-vp9", "libopus"
	default:
		return "libx264", "aac"
	}
}

func imageCodec(container string) string {
	switch container {
	case "png":
		return "png"
	case "webp":
		return "libwebp"
	case "gif":
		return "gif"
	default:
		return "mjpeg"
	}
}
