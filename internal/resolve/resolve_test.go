package resolve

import (
	"strings"
	"testing"

	"shrinkray/internal/media"
)

func intPtr(v int) *int { return &v }

func TestScalarNeverUpscales(t *testing.T) {
	cases := []struct {
		name     string
		target   int
		original *int
		want     int
	}{
		{"original below target wins", 128, intPtr(64), 64},
		{"original above target loses", 128, intPtr(256), 128},
		{"original equal keeps target", 128, intPtr(128), 128},
		{"absent original keeps target", 128, nil, 128},
		{"zero original keeps target", 128, intPtr(0), 128},
		{"negative original keeps target", 128, intPtr(-5), 128},
		{"passthrough target stays unset", 0, intPtr(64), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Scalar(tc.target, tc.original); got != tc.want {
				t.Fatalf("Scalar(%d, %v) = %d, want %d", tc.target, tc.original, got, tc.want)
			}
		})
	}
}

func TestSizeNeverUpscales(t *testing.T) {
	// Source smaller than the tier box: no resize at all.
	w, h := Size(Resolution1080p, intPtr(640), intPtr(480))
	if w != 0 || h != 0 {
		t.Fatalf("expected no resize for small source, got %dx%d", w, h)
	}
}

func TestSizeDownscalesPreservingAspect(t *testing.T) {
	w, h := Size(Resolution720p, intPtr(3840), intPtr(2160))
	if w != 1280 || h != 720 {
		t.Fatalf("expected 1280x720, got %dx%d", w, h)
	}
	// Portrait source: height is the binding constraint.
	w, h = Size(Resolution720p, intPtr(1080), intPtr(1920))
	if h != 720 {
		t.Fatalf("expected height 720, got %dx%d", w, h)
	}
	if w%2 != 0 || h%2 != 0 {
		t.Fatalf("dimensions must be even, got %dx%d", w, h)
	}
	if float64(w) > float64(1080)*float64(720)/float64(1920)+2 {
		t.Fatalf("width not scaled proportionally: %d", w)
	}
}

func TestSizeUnknownOriginalUsesTierBox(t *testing.T) {
	w, h := Size(Resolution480p, nil, nil)
	if w != 854 || h != 480 {
		t.Fatalf("expected tier box 854x480, got %dx%d", w, h)
	}
}

func TestSizeOriginalTierMeansNoResize(t *testing.T) {
	w, h := Size(ResolutionOrig, intPtr(4000), intPtr(3000))
	if w != 0 || h != 0 {
		t.Fatalf("expected no resize, got %dx%d", w, h)
	}
}

func TestResolveAudioNonUpscaling(t *testing.T) {
	settings := TargetSettings{
		AudioBitrate: Bitrate128k,
		SampleRate:   SampleRate44100,
		Channels:     ChannelStereo,
		Resolution:   ResolutionOrig,
		Quality:      0.8,
	}
	probe := media.Probe{
		BitrateKbps:  intPtr(64),
		SampleRateHz: intPtr(22050),
		ChannelCount: intPtr(1),
		DetectedFormat: "mp3",
	}

	params := Resolve(media.KindAudio, settings, probe)
	if params.BitrateKbps != 64 {
		t.Fatalf("bitrate: got %d, want 64", params.BitrateKbps)
	}
	if params.SampleRateHz != 22050 {
		t.Fatalf("sample rate: got %d, want 22050", params.SampleRateHz)
	}
	if params.ChannelCount != 1 {
		t.Fatalf("channels: got %d, want 1", params.ChannelCount)
	}
	if params.CodecSubstituted {
		t.Fatal("lossy source must not trigger substitution")
	}
	if params.AudioCodec != "libmp3lame" || params.Container != "mp3" {
		t.Fatalf("unexpected codec selection: %+v", params)
	}
}

func TestResolveEmptyProbeUsesTargets(t *testing.T) {
	settings := TargetSettings{
		AudioBitrate: Bitrate192k,
		SampleRate:   SampleRate48000,
		Channels:     ChannelStereo,
		Resolution:   Resolution1080p,
		Quality:      0.5,
	}
	params := Resolve(media.KindVideo, settings, media.Probe{})
	if params.BitrateKbps != 192 || params.SampleRateHz != 48000 || params.ChannelCount != 2 {
		t.Fatalf("empty probe must use targets unchanged: %+v", params)
	}
	if params.TargetWidth != 1920 || params.TargetHeight != 1080 {
		t.Fatalf("unknown dimensions must pass tier box through: %dx%d", params.TargetWidth, params.TargetHeight)
	}
	if params.VideoCodec != "libx264" || params.Container != "mp4" {
		t.Fatalf("unexpected video defaults: %+v", params)
	}
}

func TestResolveLosslessSubstitution(t *testing.T) {
	settings := TargetSettings{
		AudioBitrate: Bitrate128k,
		SampleRate:   SampleRateOrig,
		Channels:     ChannelOrig,
		Resolution:   ResolutionOrig,
		Quality:      0.8,
	}
	probe := media.Probe{DetectedFormat: "wav"}

	params := Resolve(media.KindAudio, settings, probe)
	if !params.CodecSubstituted {
		t.Fatal("lossless source with bitrate target must substitute codec")
	}
	if params.Container != "mp3" || params.AudioCodec != "libmp3lame" {
		t.Fatalf("expected mp3 fallback, got %+v", params)
	}
	if !strings.Contains(params.SubstitutionReason, "wav") {
		t.Fatalf("reason should name the source format: %q", params.SubstitutionReason)
	}
}

func TestResolveLosslessWithoutBitrateKeepsFormat(t *testing.T) {
	settings := TargetSettings{
		AudioBitrate: BitrateOrig,
		SampleRate:   SampleRate44100,
		Channels:     ChannelOrig,
		Resolution:   ResolutionOrig,
		Quality:      1,
	}
	params := Resolve(media.KindAudio, settings, media.Probe{DetectedFormat: "flac"})
	if params.CodecSubstituted {
		t.Fatal("no bitrate ceiling, no substitution")
	}
	if params.Container != "flac" || params.AudioCodec != "flac" {
		t.Fatalf("expected flac passthrough, got %+v", params)
	}
}

func TestResolveQualityClamped(t *testing.T) {
	settings := TargetSettings{Resolution: ResolutionOrig, Quality: 1.7}
	if got := Resolve(media.KindImage, settings, media.Probe{}).Quality; got != 1 {
		t.Fatalf("quality should clamp to 1, got %v", got)
	}
	settings.Quality = 0.01
	if got := Resolve(media.KindImage, settings, media.Probe{}).Quality; got != 0.1 {
		t.Fatalf("quality should clamp to 0.1, got %v", got)
	}
}

func TestFormatChanged(t *testing.T) {
	p := EffectiveParams{Container: "mp3", SourceFormat: "mp3"}
	if p.FormatChanged() {
		t.Fatal("same container should not count as a change")
	}
	p = EffectiveParams{Container: "m4a", SourceFormat: "mov,mp4,m4a,3gp,3g2,mj2"}
	if p.FormatChanged() {
		t.Fatal("container present in the ffprobe list should not count as a change")
	}
	p = EffectiveParams{Container: "mp3", SourceFormat: "wav"}
	if !p.FormatChanged() {
		t.Fatal("wav to mp3 is a format change")
	}
}

func TestTierParsers(t *testing.T) {
	if tier, ok := ParseBitrateTier(" 128K "); !ok || tier.Kbps() != 128 {
		t.Fatalf("ParseBitrateTier: got %v/%v", tier, ok)
	}
	if _, ok := ParseBitrateTier("129k"); ok {
		t.Fatal("unknown bitrate tier should not parse")
	}
	if tier, ok := ParseResolutionTier("original"); !ok {
		t.Fatalf("original resolution should parse, got %v", tier)
	} else if _, _, bounded := tier.Dimensions(); bounded {
		t.Fatal("original tier must not report a bounding box")
	}
	if tier, ok := ParseChannelTier("stereo"); !ok || tier.Count() != 2 {
		t.Fatalf("ParseChannelTier: got %v/%v", tier, ok)
	}
	if tier, ok := ParseSampleRateTier("48000"); !ok || tier.Hz() != 48000 {
		t.Fatalf("ParseSampleRateTier: got %v/%v", tier, ok)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	settings := TargetSettings{
		AudioBitrate:     Bitrate96k,
		SampleRate:       SampleRate22050,
		Channels:         ChannelMono,
		Resolution:       Resolution720p,
		Quality:          0.6,
		FadeOut:          1.5,
		PreserveMetadata: true,
	}
	raw, err := settings.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := UnmarshalSettings(raw)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored != settings {
		t.Fatalf("roundtrip mismatch:\n got %+v\nwant %+v", restored, settings)
	}
}
