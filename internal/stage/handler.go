// Package stage defines the contract between the workflow manager and the
// pipeline stages it drives.
package stage

import (
	"context"

	"shrinkray/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
// Prepare runs before the job is persisted in its processing status and sets
// up progress fields; Execute performs the stage's work and mutates the job
// for persistence afterwards.
type Handler interface {
	Prepare(context.Context, *queue.Job) error
	Execute(context.Context, *queue.Job) error
	HealthCheck(context.Context) Health
}

// Health summarizes the readiness of a workflow stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
