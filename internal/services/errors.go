package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying stage failures. ErrProbeUnavailable is the only
// non-fatal member: the resolver proceeds on target-only parameters when the
// probe yields nothing. Everything else fails the job and lets the batch
// continue.
var (
	ErrProbeUnavailable   = errors.New("probe unavailable")
	ErrEncoderUnavailable = errors.New("encoder unavailable")
	ErrEncodeFailed       = errors.New("encode failed")
	ErrIO                 = errors.New("io failure")
	ErrValidation         = errors.New("validation error")
	ErrConfiguration      = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification via errors.Is.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// TailLimit bounds the encoder diagnostic text surfaced in job errors.
const TailLimit = 2048

// Tail returns at most limit bytes from the end of raw, trimmed to whole
// lines where possible. Encoder stderr can be arbitrarily large; error
// payloads must not be.
func Tail(raw string, limit int) string {
	raw = strings.TrimSpace(raw)
	if limit <= 0 {
		limit = TailLimit
	}
	if len(raw) <= limit {
		return raw
	}
	tail := raw[len(raw)-limit:]
	if idx := strings.IndexByte(tail, '\n'); idx >= 0 && idx+1 < len(tail) {
		tail = tail[idx+1:]
	}
	return tail
}
