package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/charonlabs/charon/internal/utils"
	"github.com/charonlabs/charon/pkg/cache"
	"github.com/charonlabs/charon/pkg/database"
	ce "github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/events"
	"github.com/charonlabs/charon/pkg/oracle"
	"github.com/charonlabs/charon/pkg/payment"
	"github.com/charonlabs/charon/pkg/queue"
	"github.com/charonlabs/charon/pkg/structs"
)

// timeNow is a var so tests can pin the clock.
var timeNow = func() int64 {
	return time.Now().Unix()
}

// Service owns the payment-gated job lifecycle. Every mutation funnels
// through database.Transition, so concurrent callers settle who wins
// there; the Service itself holds no locks and no per-job state.
type Service struct {
	db      database.Database
	qu      queue.Queue
	cache   cache.Cache
	gate    *payment.Gate
	pub     events.Publisher
	oracles *oracle.Registry
	opts    *Options
}

// NewService builds the Service & (if opts.RunWorkers) registers an
// execution handler on the queue for every oracle kind.
func NewService(db database.Database, qu queue.Queue, ca cache.Cache, gate *payment.Gate, pub events.Publisher, oracles *oracle.Registry, opts *Options) (*Service, error) {
	if opts == nil {
		opts = OptionsServerDefault()
	}
	opts.SetDefaults()

	me := &Service{
		db:      db,
		qu:      qu,
		cache:   ca,
		gate:    gate,
		pub:     pub,
		oracles: oracles,
		opts:    opts,
	}

	if opts.RunWorkers {
		for _, kind := range oracles.Kinds() {
			err := qu.Register(kind, me.executeJob)
			if err != nil {
				return nil, err
			}
		}
	}

	return me, nil
}

// Run works jobs off the queue; blocks until Close is called.
func (s *Service) Run() error {
	return s.qu.Run()
}

func (s *Service) Close() error {
	s.qu.Close()
	s.cache.Close()
	s.pub.Close()
	s.db.Close()
	return nil
}

// CreateJob validates the request, writes a new PENDING_PAYMENT job & hands
// back payment instructions. Params are written here once and never again.
func (s *Service) CreateJob(ctx context.Context, cjr *structs.CreateJobRequest) (*structs.CreateJobResponse, error) {
	err := validateCreateJobRequest(cjr)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	job := &structs.Job{
		JobSpec:   cjr.JobSpec,
		ID:        utils.NewRandomID(),
		Status:    structs.PENDING_PAYMENT,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.InsertJob(ctx, job)
	if err != nil {
		return nil, err
	}
	if s.opts.Debug {
		log.Println("[Service] created", job.Kind, "job", job.ID)
	}

	return &structs.CreateJobResponse{
		Job:     job,
		Payment: s.gate.InstructionsFor(job),
	}, nil
}

// FetchJob is the challenge/retry path. Unpaid job + no proof gets a
// payment-required reply with instructions; unpaid job + proof gets
// verified and, on success, confirmed & dispatched. Anything already past
// payment just returns the current snapshot.
func (s *Service) FetchJob(ctx context.Context, id, proof string) (*structs.FetchResponse, error) {
	if !utils.IsValidID(id) {
		return nil, fmt.Errorf("%w bad job id %q", ce.ErrInvalidArg, id)
	}

	// The cache is only for the resolved read path. A request carrying a
	// proof is about to mutate, so it always goes to the store.
	if proof == "" {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			log.Println("[Service] cache read failed for job", id, err)
		}
		if cached != nil {
			return &structs.FetchResponse{Job: cached}, nil
		}
	}

	j, err := s.db.Job(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.gate.RequiresPayment(j) {
		// only terminal snapshots are cached. An in-flight job can still
		// change, and a populate racing the worker's invalidate would pin
		// the stale snapshot until the TTL expires.
		if structs.IsFinalStatus(j.Status) {
			s.cacheSet(ctx, j)
		}
		return &structs.FetchResponse{Job: j}, nil
	}

	if proof == "" {
		return s.paymentRequired(j, ""), nil
	}

	_, err = s.gate.Verify(ctx, proof, j)
	if errors.Is(err, ce.ErrPaymentRejected) {
		return s.paymentRequired(j, err.Error()), nil
	}
	if err != nil {
		return nil, err
	}

	snap, err := s.advance(ctx, j)
	if errors.Is(err, ce.ErrVersionMismatch) {
		// a concurrent caller advanced this job first; that's the
		// idempotency guarantee working, not an error. Serve whatever
		// state the winner left behind.
		cur, err := s.db.Job(ctx, id)
		if err != nil {
			return nil, err
		}
		return &structs.FetchResponse{Job: cur}, nil
	}
	if err != nil {
		return nil, err
	}
	return &structs.FetchResponse{Job: snap}, nil
}

// ConfirmJob is the legacy explicit-confirmation path. It only applies to
// unpaid jobs; payment is assumed settled out of band, so the proof is
// synthesized. Converges on the exact same transitions as FetchJob.
func (s *Service) ConfirmJob(ctx context.Context, id string) (*structs.Job, error) {
	if !utils.IsValidID(id) {
		return nil, fmt.Errorf("%w bad job id %q", ce.ErrInvalidArg, id)
	}

	j, err := s.db.Job(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.gate.RequiresPayment(j) {
		return nil, fmt.Errorf("%w job %s is %s, not %s", ce.ErrInvalidState, id, j.Status, structs.PENDING_PAYMENT)
	}

	_, err = s.gate.Verify(ctx, legacyProof(id), j)
	if err != nil {
		return nil, err
	}

	snap, err := s.advance(ctx, j)
	if errors.Is(err, ce.ErrVersionMismatch) {
		// someone else confirmed between our read & write
		return nil, fmt.Errorf("%w job %s already advanced past %s", ce.ErrInvalidState, id, structs.PENDING_PAYMENT)
	}
	return snap, err
}

// Jobs lists jobs matching the query.
func (s *Service) Jobs(ctx context.Context, q *structs.Query) (*structs.ListJobsResponse, error) {
	q.Sanitize()
	jobs, total, err := s.db.Jobs(ctx, q)
	if err != nil {
		return nil, err
	}
	return &structs.ListJobsResponse{
		Jobs: jobs,
		Pagination: &structs.Pagination{
			Limit:   q.Limit,
			Offset:  q.Offset,
			Total:   total,
			HasMore: int64(q.Offset+len(jobs)) < total,
		},
	}, nil
}

// advance moves a job we just verified payment for through
// PENDING_PAYMENT -> PAYMENT_CONFIRMED -> QUERY_IN_PROGRESS & submits it
// for execution. Both hops are version-checked against the caller's read,
// which is what makes exactly-one-dispatch hold under concurrent callers:
// the first transition can only succeed once per version.
func (s *Service) advance(ctx context.Context, j *structs.Job) (*structs.Job, error) {
	confirmed, err := s.db.Transition(ctx, j.ID, structs.PENDING_PAYMENT, j.Version, &database.Mutation{Status: structs.PAYMENT_CONFIRMED})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, j.ID)
	s.publish(ctx, confirmed)

	inprog, err := s.db.Transition(ctx, confirmed.ID, structs.PAYMENT_CONFIRMED, confirmed.Version, &database.Mutation{Status: structs.QUERY_IN_PROGRESS})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, j.ID)
	s.publish(ctx, inprog)

	_, err = s.qu.Enqueue(ctx, inprog)
	if err != nil {
		// we confirmed payment but couldn't hand the job off; fail it
		// rather than strand it in QUERY_IN_PROGRESS forever
		return s.finishJob(ctx, inprog, nil, fmt.Errorf("dispatch failed: %v", err))
	}
	if s.opts.Debug {
		log.Println("[Service] dispatched job", inprog.ID)
	}
	return inprog, nil
}

// executeJob is the queue handler: it runs the oracle computation for one
// dispatched job and records the outcome. Execution errors land in the
// job's FAILED state; they're never thrown back at whoever triggered the
// dispatch, that request returned long ago.
func (s *Service) executeJob(ctx context.Context, jobID string) error {
	j, err := s.db.Job(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Status != structs.QUERY_IN_PROGRESS {
		// duplicate delivery, or someone already finished it
		log.Println("[Service] skipping job", jobID, "in status", j.Status)
		return nil
	}

	h, err := s.oracles.Get(j.Kind)
	if err != nil {
		_, err = s.finishJob(ctx, j, nil, err)
		return err
	}

	execCtx, cancel := context.WithTimeout(ctx, s.opts.MaxQueryRuntime)
	defer cancel()
	res, execErr := h.Execute(execCtx, j)

	_, err = s.finishJob(ctx, j, res, execErr)
	return err
}

// finishJob records a terminal state for a dispatched job, invalidating
// the cache before anyone is told about the change.
func (s *Service) finishJob(ctx context.Context, j *structs.Job, res *structs.Result, execErr error) (*structs.Job, error) {
	mut := &database.Mutation{Status: structs.COMPLETED, Result: res}
	if execErr != nil {
		mut.Status = structs.FAILED
		mut.Result = &structs.Result{Error: execErr.Error()}
	}

	done, err := s.db.Transition(ctx, j.ID, structs.QUERY_IN_PROGRESS, j.Version, mut)
	if errors.Is(err, ce.ErrVersionMismatch) {
		log.Println("[Service] job", j.ID, "already finished elsewhere")
		return s.db.Job(ctx, j.ID)
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, j.ID)
	s.publish(ctx, done)
	return done, nil
}

func (s *Service) cacheSet(ctx context.Context, j *structs.Job) {
	err := s.cache.Set(ctx, j, s.opts.CacheTTL)
	if err != nil {
		log.Println("[Service] cache write failed for job", j.ID, err)
	}
}

func (s *Service) invalidate(ctx context.Context, id string) {
	err := s.cache.Invalidate(ctx, id)
	if err != nil {
		log.Println("[Service] cache invalidate failed for job", id, err)
	}
}

func (s *Service) publish(ctx context.Context, j *structs.Job) {
	err := s.pub.Publish(ctx, &events.Event{
		JobID:   j.ID,
		Status:  j.Status,
		Version: j.Version,
		Result:  j.Result,
	})
	if err != nil {
		log.Println("[Service] failed to publish event for job", j.ID, err)
	}
}

func (s *Service) paymentRequired(j *structs.Job, reason string) *structs.FetchResponse {
	return &structs.FetchResponse{
		PaymentRequired: true,
		JobID:           j.ID,
		Payment:         s.gate.InstructionsFor(j),
		Reason:          reason,
	}
}

func legacyProof(id string) string {
	return "legacy-confirm:" + id
}
