package database

import (
	"context"

	"github.com/charonlabs/charon/pkg/structs"
)

// Mutation is the change a Transition applies: a new status and, when the
// new status is an end state, the job's result.
type Mutation struct {
	Status structs.Status
	Result *structs.Result
}

// Database stores jobs. All writes after insert go through Transition,
// which only applies a mutation if the stored job's status & version still
// match what the caller read. There is no unconditional set-state; the
// conditional update is the single synchronization point that keeps
// concurrent callers from double-dispatching a job.
type Database interface {
	// InsertJob writes a newly built job (status PENDING_PAYMENT, version 0).
	InsertJob(ctx context.Context, j *structs.Job) error

	// Job returns the job with the given ID, or errors.ErrNotFound.
	Job(ctx context.Context, id string) (*structs.Job, error)

	// Jobs returns jobs matching the given query ordered by creation time
	// ascending, plus the total count of matches ignoring limit / offset.
	Jobs(ctx context.Context, q *structs.Query) ([]*structs.Job, int64, error)

	// Transition applies the mutation iff the stored job is currently at
	// (status, version). On success the stored version is bumped by one and
	// the updated job is returned. A concurrent writer having moved the job
	// first yields errors.ErrVersionMismatch with no side effects; an
	// unknown ID yields errors.ErrNotFound.
	Transition(ctx context.Context, id string, status structs.Status, version int64, mut *Mutation) (*structs.Job, error)

	Close() error
}
