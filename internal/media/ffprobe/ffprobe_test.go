package ffprobe

import "testing"

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1920, Height: 1080, BitRate: "4500000"},
			{CodecType: "audio", SampleRate: "44100", Channels: 2, BitRate: "192000"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	video := result.FirstVideoStream()
	if video == nil || video.Width != 1920 {
		t.Fatalf("unexpected video stream: %+v", video)
	}
	audio := result.FirstAudioStream()
	if audio == nil || audio.SampleRateHz() != 44100 {
		t.Fatalf("unexpected audio stream: %+v", audio)
	}
	if audio.BitRateBps() != 192000 {
		t.Fatalf("unexpected audio bitrate: %d", audio.BitRateBps())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", SampleRate: "bad", BitRate: "nope", NBFrames: "-3"}},
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
	audio := result.FirstAudioStream()
	if audio.SampleRateHz() != 0 || audio.BitRateBps() != 0 || audio.FrameCount() != 0 {
		t.Fatalf("expected zeroed accessors, got %+v", audio)
	}
	if result.FirstVideoStream() != nil {
		t.Fatal("expected no video stream")
	}
}
