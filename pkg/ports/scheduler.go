package ports

import "context"

// Task is a unit of delivery work. ctx is cancelled when the scheduler shuts down.
type Task func(ctx context.Context)

// Scheduler accepts work and runs it to completion independently of the caller.
type Scheduler interface {
	// Spawn schedules task without waiting for it. Tasks sharing a key run in
	// submission order; tasks with different keys have no ordering relation.
	Spawn(key string, task Task)
}
