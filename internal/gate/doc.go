// Package gate decides whether a compressed artifact is worth keeping. The
// rule is strict: the compressed file must be smaller than the original in
// bytes, a tie loses. Losing artifacts are discarded and the original is
// delivered instead, so a job that encodes successfully can never make the
// user's file bigger.
package gate
