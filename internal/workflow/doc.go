// Package workflow drives media jobs through the compression pipeline.
//
// The manager owns one sequential loop: it pulls the oldest actionable job
// from the queue, runs the stage registered for the job's status, persists
// the result, and repeats until the queue drains or the context is
// cancelled. Stages are probe (inspect the source), resolve (compute
// effective parameters), and encode (run ffmpeg and gate the result).
//
// A job that fails stays failed and does not block the rest of the batch;
// the loop simply moves on to the next actionable job.
package workflow
