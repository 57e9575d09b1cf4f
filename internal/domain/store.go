package domain

import "context"

// JobStore defines persistence for job records. Update applies the mutation
// atomically: concurrent readers observe either the record before fn ran or
// the record after it, never a partially applied batch of fields.
type JobStore interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, id string, fn func(*Job) error) (*Job, error)
	// Claim atomically moves the oldest queued job to processing and returns
	// it, or ErrNoJobAvailable when nothing is queued. Used by polling
	// workers so the same job is never picked up twice.
	Claim(ctx context.Context) (*Job, error)
	Close() error
}
