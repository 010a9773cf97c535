// Package ffprobe wraps ffprobe JSON inspection of media containers.
//
// Inspection is read-only and best-effort. Numeric fields arrive from ffprobe
// as strings and are parsed defensively; callers should treat zero values as
// "unreported" and use the typed accessors rather than raw struct fields.
package ffprobe
