// Package encoding runs ffmpeg invocations produced by the plan package and
// reports structured progress while they execute.
//
// The FFmpeg encoder streams machine-readable progress from ffmpeg's
// -progress output and keeps a bounded tail of stderr so encode failures
// surface actionable diagnostics without unbounded buffering.
package encoding
