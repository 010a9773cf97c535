package plan

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"shrinkray/internal/media"
	"shrinkray/internal/resolve"
)

// Mode selects between the two mutually exclusive execution paths.
type Mode string

const (
	// ModeCopy remuxes the source streams without decoding them.
	ModeCopy Mode = "copy"
	// ModeTranscode decodes and re-encodes with the resolved parameters.
	ModeTranscode Mode = "transcode"
)

// Plan is a fully rendered ffmpeg invocation for one job.
type Plan struct {
	Mode       Mode
	InputPath  string
	OutputPath string

	// Args holds every argument after the binary name, output path included.
	Args []string
}

// CommandLine renders the invocation for logs. Paths with spaces are quoted.
func (p Plan) CommandLine(binary string) string {
	parts := make([]string, 0, len(p.Args)+1)
	parts = append(parts, binary)
	for _, arg := range p.Args {
		if strings.ContainsAny(arg, " \t") {
			parts = append(parts, strconv.Quote(arg))
		} else {
			parts = append(parts, arg)
		}
	}
	return strings.Join(parts, " ")
}

// Build constructs the plan for one job. Copy eligibility is decided here
// and nowhere else: every requested tier must be "original", the container
// must not change, and no filter work (scaling, fades, quality reduction)
// may be pending. Trimming alone keeps the copy path because ffmpeg can cut
// on keyframes without decoding.
//
// durationSeconds is the probed source duration, zero when unknown. It only
// matters for placing a fade-out on an untrimmed file.
func Build(kind media.Kind, settings resolve.TargetSettings, params resolve.EffectiveParams, durationSeconds float64, input, output string) Plan {
	p := Plan{InputPath: input, OutputPath: output}
	if copyEligible(kind, settings, params) {
		p.Mode = ModeCopy
		p.Args = copyArgs(settings, input, output)
		return p
	}
	p.Mode = ModeTranscode
	p.Args = transcodeArgs(kind, settings, params, durationSeconds, input, output)
	return p
}

func copyEligible(kind media.Kind, settings resolve.TargetSettings, params resolve.EffectiveParams) bool {
	if !settings.AllOriginalTiers() {
		return false
	}
	if params.FormatChanged() || params.CodecSubstituted {
		return false
	}
	if settings.HasFades() {
		return false
	}
	if params.TargetWidth > 0 || params.TargetHeight > 0 {
		return false
	}
	if kind != media.KindAudio && params.Quality < 1 {
		return false
	}
	return true
}

func copyArgs(settings resolve.TargetSettings, input, output string) []string {
	args := preamble()
	args = appendTrimInput(args, settings)
	args = append(args, "-i", input)
	args = appendTrimDuration(args, settings)
	args = append(args, "-c", "copy")
	args = appendMetadata(args, settings)
	args = append(args, output)
	return args
}

func transcodeArgs(kind media.Kind, settings resolve.TargetSettings, params resolve.EffectiveParams, durationSeconds float64, input, output string) []string {
	args := preamble()
	if settings.HardwareAccel && kind == media.KindVideo {
		args = append(args, "-hwaccel", "auto")
	}
	args = appendTrimInput(args, settings)
	args = append(args, "-i", input)
	args = appendTrimDuration(args, settings)

	switch kind {
	case media.KindAudio:
		args = append(args, "-vn")
		args = appendAudioCodec(args, params)
		if filter := audioFilter(settings, durationSeconds); filter != "" {
			args = append(args, "-af", filter)
		}
	case media.KindVideo:
		if filter := videoFilter(settings, params, durationSeconds); filter != "" {
			args = append(args, "-vf", filter)
		}
		args = appendVideoCodec(args, params)
		args = appendAudioCodec(args, params)
		if filter := audioFilter(settings, durationSeconds); filter != "" {
			args = append(args, "-af", filter)
		}
	case media.KindImage:
		if filter := videoFilter(settings, params, durationSeconds); filter != "" {
			args = append(args, "-vf", filter)
		}
		args = appendImageCodec(args, settings, params)
	}

	args = appendMetadata(args, settings)
	if params.Container == "mp4" || params.Container == "m4a" {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, output)
	return args
}

func preamble() []string {
	return []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-y"}
}

// appendTrimInput seeks before the input so the output timeline restarts at
// zero. Fade timestamps are then relative to the trimmed start.
func appendTrimInput(args []string, settings resolve.TargetSettings) []string {
	if settings.TrimStart > 0 {
		args = append(args, "-ss", formatSeconds(settings.TrimStart))
	}
	return args
}

func appendTrimDuration(args []string, settings resolve.TargetSettings) []string {
	if settings.TrimEnd > settings.TrimStart {
		args = append(args, "-t", formatSeconds(settings.TrimEnd-settings.TrimStart))
	}
	return args
}

// appendVideoCodec renders the encoder selection. vp9 needs -b:v 0 to run
// in constant-quality mode and does not understand x264 presets.
func appendVideoCodec(args []string, params resolve.EffectiveParams) []string {
	args = append(args, "-c:v", params.VideoCodec,
		"-crf", strconv.Itoa(CRFForQuality(params.Quality)))
	switch params.VideoCodec {
	case "libvpx-vp9":
		args = append(args, "-b:v", "0")
	default:
		args = append(args, "-preset", "medium")
	}
	return append(args, "-pix_fmt", "yuv420p")
}

func appendAudioCodec(args []string, params resolve.EffectiveParams) []string {
	args = append(args, "-c:a", params.AudioCodec)
	if params.BitrateKbps > 0 && bitrateControlled(params.AudioCodec) {
		args = append(args, "-b:a", fmt.Sprintf("%dk", params.BitrateKbps))
	}
	if params.SampleRateHz > 0 {
		args = append(args, "-ar", strconv.Itoa(params.SampleRateHz))
	}
	if params.ChannelCount > 0 {
		args = append(args, "-ac", strconv.Itoa(params.ChannelCount))
	}
	return args
}

// bitrateControlled reports whether the codec accepts a target bitrate.
// Lossless codecs ignore -b:a, so emitting it would be noise at best.
func bitrateControlled(codec string) bool {
	switch codec {
	case "flac", "pcm_s16le", "pcm_s16be":
		return false
	default:
		return true
	}
}

func appendImageCodec(args []string, settings resolve.TargetSettings, params resolve.EffectiveParams) []string {
	animated := settings.PreserveAnimation && media.IsAnimatedImageFormat(params.SourceFormat)
	if !animated {
		args = append(args, "-frames:v", "1")
	}
	args = append(args, "-c:v", params.VideoCodec)
	switch params.VideoCodec {
	case "mjpeg":
		args = append(args, "-q:v", strconv.Itoa(jpegQScale(params.Quality)))
	case "libwebp":
		args = append(args, "-quality", strconv.Itoa(int(math.Round(params.Quality*100))))
	case "png":
		args = append(args, "-compression_level", "100")
	}
	return args
}

func appendMetadata(args []string, settings resolve.TargetSettings) []string {
	if settings.PreserveMetadata {
		return append(args, "-map_metadata", "0")
	}
	return append(args, "-map_metadata", "-1")
}

// videoFilter chains scaling and fades into one -vf expression.
func videoFilter(settings resolve.TargetSettings, params resolve.EffectiveParams, durationSeconds float64) string {
	var filters []string
	if params.TargetWidth > 0 && params.TargetHeight > 0 {
		filters = append(filters, fmt.Sprintf("scale=%d:%d", params.TargetWidth, params.TargetHeight))
	}
	if settings.FadeIn > 0 {
		filters = append(filters, fmt.Sprintf("fade=t=in:st=0:d=%s", formatSeconds(settings.FadeIn)))
	}
	if settings.FadeOut > 0 {
		if start := fadeOutStart(settings, durationSeconds); start >= 0 {
			filters = append(filters, fmt.Sprintf("fade=t=out:st=%s:d=%s",
				formatSeconds(start), formatSeconds(settings.FadeOut)))
		}
	}
	return strings.Join(filters, ",")
}

func audioFilter(settings resolve.TargetSettings, durationSeconds float64) string {
	var filters []string
	if settings.FadeIn > 0 {
		filters = append(filters, fmt.Sprintf("afade=t=in:st=0:d=%s", formatSeconds(settings.FadeIn)))
	}
	if settings.FadeOut > 0 {
		if start := fadeOutStart(settings, durationSeconds); start >= 0 {
			filters = append(filters, fmt.Sprintf("afade=t=out:st=%s:d=%s",
				formatSeconds(start), formatSeconds(settings.FadeOut)))
		}
	}
	return strings.Join(filters, ",")
}

// fadeOutStart returns where the fade-out begins on the output timeline, or
// a negative value when the output duration is unknown and the fade must be
// skipped rather than guessed. The output timeline starts at zero after an
// input-side seek, so only the trimmed length matters.
func fadeOutStart(settings resolve.TargetSettings, durationSeconds float64) float64 {
	outputDuration := 0.0
	switch {
	case settings.TrimEnd > settings.TrimStart:
		outputDuration = settings.TrimEnd - settings.TrimStart
	case durationSeconds > settings.TrimStart:
		outputDuration = durationSeconds - settings.TrimStart
	default:
		return -1
	}
	start := outputDuration - settings.FadeOut
	if start < 0 {
		return 0
	}
	return start
}

// CRFForQuality maps the 0.1..1.0 quality scale onto the x264/x265 CRF
// range 10..55. Quality 1.0 yields CRF 10, quality 0.1 yields CRF 55.
func CRFForQuality(quality float64) int {
	if quality < 0.1 {
		quality = 0.1
	}
	if quality > 1 {
		quality = 1
	}
	return int(math.Round(10 + (1-quality)*45))
}

// formatSeconds renders a timestamp without trailing zeros, the way ffmpeg
// accepts it.
func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// jpegQScale maps quality onto mjpeg's 2..31 qscale, lower is better.
func jpegQScale(quality float64) int {
	if quality < 0.1 {
		quality = 0.1
	}
	if quality > 1 {
		quality = 1
	}
	return int(math.Round(2 + (1-quality)*29))
}
