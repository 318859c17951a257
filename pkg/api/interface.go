package api

import (
	"context"

	"github.com/charonlabs/charon/pkg/structs"
)

// API represents the functions charon servers should expose.
type API interface {
	// Implemented in charon/internal/core.Service

	// CreateJob registers a job and returns it along with payment
	// instructions. The job does nothing until it's paid for.
	CreateJob(ctx context.Context, cjr *structs.CreateJobRequest) (*structs.CreateJobResponse, error)

	// FetchJob returns a job snapshot, or a payment-required challenge if
	// the job is unpaid and no (valid) proof accompanied the request.
	// A valid proof confirms payment and dispatches the job.
	FetchJob(ctx context.Context, id, proof string) (*structs.FetchResponse, error)

	// ConfirmJob confirms payment for a job settled out of band and
	// dispatches it. Pre-dates the proof flow on FetchJob.
	ConfirmJob(ctx context.Context, id string) (*structs.Job, error)

	// Jobs lists jobs matching the given query.
	Jobs(ctx context.Context, q *structs.Query) (*structs.ListJobsResponse, error)

	// Run works jobs off the queue (blocks). Only useful if the API was
	// built with RunWorkers.
	Run() error

	Close() error
}

type Server interface {
	ServeForever(api API) error
	Close() error
}
