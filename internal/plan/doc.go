// Package plan turns resolved compression parameters into concrete ffmpeg
// invocations. A plan is either a stream copy or a re-encode, never both:
// the copy path remuxes untouched streams, the transcode path rewrites them
// with the resolved codecs, bitrates, and quality.
package plan
