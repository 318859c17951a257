package queue

import (
	"context"

	"github.com/charonlabs/charon/pkg/structs"
)

// Handler processes one submitted job, identified by id. The handler
// re-reads the job itself; the queue only carries the id so a stale
// payload can never overrule the store.
type Handler func(ctx context.Context, jobID string) error

// Queue carries confirmed jobs to out-of-line execution. Enqueue must
// return promptly; the request path never waits on a job actually running.
//
// The queue makes no ordering promises across jobs & each submission is a
// single delivery attempt: retry policy, if any, belongs to the caller.
type Queue interface {
	// Register a handler for the given job kind. Must be called before Run.
	Register(kind structs.Kind, h Handler) error

	// Enqueue a job for execution, returning the queue's own id for the
	// queued work (if it has one).
	Enqueue(ctx context.Context, j *structs.Job) (string, error)

	// Run the queue & process jobs (via Register handlers). Blocks until
	// Close is called.
	Run() error

	// Close & shutdown the queue.
	Close() error
}
