package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapKeepsMarker(t *testing.T) {
	base := errors.New("exit status 1")
	err := Wrap(ErrEncodeFailed, "encode", "ffmpeg run", "see stderr tail", base)

	if !errors.Is(err, ErrEncodeFailed) {
		t.Fatalf("expected ErrEncodeFailed marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "encode: ffmpeg run: see stderr tail") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToIO(t *testing.T) {
	err := Wrap(nil, "gate", "move output", "", nil)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO default, got %v", err)
	}
}

func TestTailBounded(t *testing.T) {
	raw := strings.Repeat("frame dropped\n", 500)
	tail := Tail(raw, 100)
	if len(tail) > 100 {
		t.Fatalf("tail exceeds limit: %d bytes", len(tail))
	}
	if !strings.HasPrefix(tail, "frame dropped") {
		t.Fatalf("tail should start on a whole line, got %q", tail[:20])
	}
}

func TestTailShortInputUnchanged(t *testing.T) {
	if got := Tail("  short  ", 100); got != "short" {
		t.Fatalf("expected trimmed passthrough, got %q", got)
	}
}
