// Package resolve computes the effective compression parameters for a job.
//
// The central rule is non-upscaling: no quality-affecting parameter is ever
// raised above what the source already has, because that wastes space without
// improving perceived quality. Each scalar (bitrate, sample rate, channels)
// is resolved independently; an absent or zero probed value is excluded from
// the comparison and the target is used unchanged. Spatial resolution follows
// the same policy with aspect-ratio-preserving scaling clamped to 1.0.
//
// Resolution is pure computation: it never performs I/O and never fails.
package resolve
