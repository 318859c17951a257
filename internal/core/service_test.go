package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/charonlabs/charon/internal/mocks/pkg/payment_mock"
	"github.com/charonlabs/charon/internal/mocks/pkg/queue_mock"
	"github.com/charonlabs/charon/pkg/cache"
	"github.com/charonlabs/charon/pkg/database"
	ce "github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/events"
	"github.com/charonlabs/charon/pkg/oracle"
	"github.com/charonlabs/charon/pkg/payment"
	"github.com/charonlabs/charon/pkg/queue"
	"github.com/charonlabs/charon/pkg/structs"
)

// newTestService wires a Service over purely in-memory backends with a
// static verifier (any non-empty proof passes).
func newTestService(t *testing.T) (*Service, *database.Memory, *cache.Memory, *queue.Memory) {
	db := database.NewMemory()
	ca := cache.NewMemory()
	qu := queue.NewMemory()
	gate := payment.NewGate(payment.NewStatic(), nil)

	svc, err := NewService(db, qu, ca, gate, events.NewDiscard(), oracle.Default(), OptionsServerDefault())
	require.Nil(t, err)

	return svc, db, ca, qu
}

func randomSpec(min, max float64) structs.JobSpec {
	return structs.JobSpec{Kind: structs.KindRandom, Params: structs.Params{Min: min, Max: max}}
}

func TestCreateJobValidates(t *testing.T) {
	cases := []struct {
		Name string
		Spec structs.JobSpec
		Ok   bool
	}{
		{
			Name: "random ok",
			Spec: randomSpec(1, 402),
			Ok:   true,
		},
		{
			Name: "random min equals max",
			Spec: randomSpec(5, 5),
		},
		{
			Name: "random min above max",
			Spec: randomSpec(10, 2),
		},
		{
			Name: "price ok",
			Spec: structs.JobSpec{Kind: structs.KindPrice, Params: structs.Params{Pair: "SOL/USDC"}},
			Ok:   true,
		},
		{
			Name: "price empty pair",
			Spec: structs.JobSpec{Kind: structs.KindPrice},
		},
		{
			Name: "price pair too long",
			Spec: structs.JobSpec{Kind: structs.KindPrice, Params: structs.Params{Pair: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA/B"}},
		},
		{
			Name: "webhook ok",
			Spec: structs.JobSpec{Kind: structs.KindWebhook, Params: structs.Params{URL: "https://example.com/hook"}},
			Ok:   true,
		},
		{
			Name: "webhook relative url",
			Spec: structs.JobSpec{Kind: structs.KindWebhook, Params: structs.Params{URL: "/hook"}},
		},
		{
			Name: "unknown kind",
			Spec: structs.JobSpec{Kind: structs.Kind("tarot")},
		},
	}

	svc, _, _, _ := newTestService(t)
	defer svc.Close()

	for _, tt := range cases {
		t.Run(tt.Name, func(t *testing.T) {
			resp, err := svc.CreateJob(context.Background(), &structs.CreateJobRequest{JobSpec: tt.Spec})

			if !tt.Ok {
				assert.NotNil(t, err)
				assert.True(t, errors.Is(err, ce.ErrInvalidParams))
				return
			}
			require.Nil(t, err)
			assert.Equal(t, structs.PENDING_PAYMENT, resp.Job.Status)
			assert.Equal(t, int64(0), resp.Job.Version)
			assert.NotEmpty(t, resp.Job.ID)
			require.NotNil(t, resp.Payment)
			assert.True(t, resp.Payment.Amount > 0)
		})
	}
}

func TestCreateJobPriceInstructionsUseBaseSymbol(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	defer svc.Close()

	resp, err := svc.CreateJob(context.Background(), &structs.CreateJobRequest{
		JobSpec: structs.JobSpec{Kind: structs.KindPrice, Params: structs.Params{Pair: "SOL/USDC"}},
	})

	require.Nil(t, err)
	assert.Equal(t, "SOL", resp.Payment.Currency)
}

func TestFetchJobRejectsBadID(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	defer svc.Close()

	_, err := svc.FetchJob(context.Background(), "not-a-job-id", "")

	assert.True(t, errors.Is(err, ce.ErrInvalidArg))
}

func TestFetchJobNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	defer svc.Close()

	_, err := svc.FetchJob(context.Background(), "b9a2f5d0c4e14bb2a1a0f3a9d8c7e6f5", "")

	assert.True(t, errors.Is(err, ce.ErrNotFound))
}

func TestFetchJobUnpaidChallenges(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	defer svc.Close()
	ctx := context.Background()

	created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{
		JobSpec: structs.JobSpec{Kind: structs.KindPrice, Params: structs.Params{Pair: "SOL/USDC"}},
	})
	require.Nil(t, err)

	resp, err := svc.FetchJob(ctx, created.Job.ID, "")

	require.Nil(t, err)
	assert.True(t, resp.PaymentRequired)
	assert.Nil(t, resp.Job)
	assert.Equal(t, created.Job.ID, resp.JobID)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, "SOL", resp.Payment.Currency)
}

func TestFetchJobWithProofRunsToCompletion(t *testing.T) {
	svc, _, _, qu := newTestService(t)
	defer svc.Close()
	ctx := context.Background()

	created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{
		JobSpec: structs.JobSpec{Kind: structs.KindPrice, Params: structs.Params{Pair: "SOL/USDC"}},
	})
	require.Nil(t, err)

	resp, err := svc.FetchJob(ctx, created.Job.ID, "paid-by-test")
	require.Nil(t, err)
	assert.False(t, resp.PaymentRequired)
	require.NotNil(t, resp.Job)
	assert.Equal(t, structs.QUERY_IN_PROGRESS, resp.Job.Status)
	assert.Equal(t, int64(2), resp.Job.Version)

	qu.Wait()

	done, err := svc.FetchJob(ctx, created.Job.ID, "")
	require.Nil(t, err)
	require.NotNil(t, done.Job)
	assert.Equal(t, structs.COMPLETED, done.Job.Status)
	assert.Equal(t, int64(3), done.Job.Version)
	require.NotNil(t, done.Job.Result)
	assert.Equal(t, "SOL/USDC", done.Job.Result.Pair)
	assert.True(t, done.Job.Result.Price > 0)
}

func TestFetchJobIdempotentAfterCompletion(t *testing.T) {
	svc, _, _, qu := newTestService(t)
	defer svc.Close()
	ctx := context.Background()

	created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{JobSpec: randomSpec(1, 402)})
	require.Nil(t, err)

	_, err = svc.FetchJob(ctx, created.Job.ID, "paid-by-test")
	require.Nil(t, err)
	qu.Wait()

	// repeated reads, with or without a proof, serve the same snapshot
	// and never re-dispatch
	first, err := svc.FetchJob(ctx, created.Job.ID, "")
	require.Nil(t, err)
	again, err := svc.FetchJob(ctx, created.Job.ID, "paid-by-test")
	require.Nil(t, err)

	assert.Equal(t, structs.COMPLETED, first.Job.Status)
	assert.Equal(t, first.Job.Version, again.Job.Version)
	assert.Equal(t, first.Job.Result, again.Job.Result)
	require.NotNil(t, first.Job.Result.Value)
	assert.True(t, *first.Job.Result.Value >= 1 && *first.Job.Result.Value < 402)
}

func TestFetchJobRejectedProofChallengesAgain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := database.NewMemory()
	verifier := payment_mock.NewMockVerifier(ctrl)
	gate := payment.NewGate(verifier, nil)
	opts := OptionsClientDefault()
	opts.SetDefaults()
	svc := &Service{db: db, qu: queue.NewMemory(), cache: cache.NewMemory(), gate: gate, pub: events.NewDiscard(), oracles: oracle.Default(), opts: opts}

	ctx := context.Background()
	created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{JobSpec: randomSpec(1, 402)})
	require.Nil(t, err)

	verifier.EXPECT().Verify(gomock.Any(), "bad-proof", created.Job.ID, gomock.Any(), gomock.Any()).Return(
		nil, fmt.Errorf("%w signature mismatch", ce.ErrPaymentRejected),
	)

	resp, err := svc.FetchJob(ctx, created.Job.ID, "bad-proof")

	// a rejected proof is a fresh challenge, not a request failure
	require.Nil(t, err)
	assert.True(t, resp.PaymentRequired)
	assert.Contains(t, resp.Reason, "signature mismatch")

	j, err := db.Job(ctx, created.Job.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.PENDING_PAYMENT, j.Status)
	assert.Equal(t, int64(0), j.Version)
}

func TestFetchJobConcurrentProofsDispatchOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := database.NewMemory()
	qu := queue_mock.NewMockQueue(ctrl)
	gate := payment.NewGate(payment.NewStatic(), nil)
	opts := OptionsClientDefault()
	opts.SetDefaults()
	svc := &Service{db: db, qu: qu, cache: cache.NewMemory(), gate: gate, pub: events.NewDiscard(), oracles: oracle.Default(), opts: opts}

	ctx := context.Background()
	created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{JobSpec: randomSpec(1, 402)})
	require.Nil(t, err)

	// however many callers race their proofs in, the job is handed to the
	// queue exactly once
	qu.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return("task-id", nil).Times(1)

	routines := 16
	wg := &sync.WaitGroup{}
	errs := make(chan error, routines)
	for i := 0; i < routines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			resp, ferr := svc.FetchJob(ctx, created.Job.ID, fmt.Sprintf("proof-%d", n))
			if ferr != nil {
				errs <- ferr
				return
			}
			if resp.Job == nil || resp.Job.Status == structs.PENDING_PAYMENT {
				errs <- fmt.Errorf("caller %d saw unpaid state after verified proof", n)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		assert.Nil(t, e)
	}

	j, err := db.Job(ctx, created.Job.ID)
	require.Nil(t, err)
	assert.Equal(t, structs.QUERY_IN_PROGRESS, j.Status)
	assert.Equal(t, int64(2), j.Version)
}

func TestFetchJobDispatchFailureFailsJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := database.NewMemory()
	qu := queue_mock.NewMockQueue(ctrl)
	gate := payment.NewGate(payment.NewStatic(), nil)
	opts := OptionsClientDefault()
	opts.SetDefaults()
	svc := &Service{db: db, qu: qu, cache: cache.NewMemory(), gate: gate, pub: events.NewDiscard(), oracles: oracle.Default(), opts: opts}

	ctx := context.Background()
	created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{JobSpec: randomSpec(1, 402)})
	require.Nil(t, err)

	qu.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return("", fmt.Errorf("broker down"))

	resp, err := svc.FetchJob(ctx, created.Job.ID, "paid-by-test")

	// payment went through but the hand-off didn't; the job fails rather
	// than sitting in QUERY_IN_PROGRESS forever
	require.Nil(t, err)
	require.NotNil(t, resp.Job)
	assert.Equal(t, structs.FAILED, resp.Job.Status)
	require.NotNil(t, resp.Job.Result)
	assert.Contains(t, resp.Job.Result.Error, "dispatch failed")
}

func TestFetchJobExecutionFailureMarksFailed(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer svr.Close()

	svc, _, _, qu := newTestService(t)
	defer svc.Close()
	ctx := context.Background()

	created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{
		JobSpec: structs.JobSpec{Kind: structs.KindWebhook, Params: structs.Params{URL: svr.URL}},
	})
	require.Nil(t, err)

	_, err = svc.FetchJob(ctx, created.Job.ID, "paid-by-test")
	require.Nil(t, err)
	qu.Wait()

	resp, err := svc.FetchJob(ctx, created.Job.ID, "")
	require.Nil(t, err)
	assert.Equal(t, structs.FAILED, resp.Job.Status)
	require.NotNil(t, resp.Job.Result)
	assert.NotEmpty(t, resp.Job.Result.Error)
}

func TestFetchJobNeverServesStaleCache(t *testing.T) {
	svc, _, ca, qu := newTestService(t)
	defer svc.Close()
	ctx := context.Background()

	created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{JobSpec: randomSpec(1, 402)})
	require.Nil(t, err)

	// plant a stale pre-payment snapshot in the cache by hand
	err = ca.Set(ctx, created.Job, time.Minute)
	require.Nil(t, err)

	_, err = svc.FetchJob(ctx, created.Job.ID, "paid-by-test")
	require.Nil(t, err)
	qu.Wait()

	// the mutation invalidated before anything repopulated; the read sees
	// the new world, never the planted snapshot
	resp, err := svc.FetchJob(ctx, created.Job.ID, "")
	require.Nil(t, err)
	assert.Equal(t, structs.COMPLETED, resp.Job.Status)
	assert.Equal(t, int64(3), resp.Job.Version)
}

func TestFetchJobResolvedReadPopulatesCache(t *testing.T) {
	svc, _, ca, qu := newTestService(t)
	defer svc.Close()
	ctx := context.Background()

	created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{JobSpec: randomSpec(1, 402)})
	require.Nil(t, err)

	// nothing cached while unpaid
	_, err = svc.FetchJob(ctx, created.Job.ID, "")
	require.Nil(t, err)
	got, err := ca.Get(ctx, created.Job.ID)
	require.Nil(t, err)
	assert.Nil(t, got)

	_, err = svc.FetchJob(ctx, created.Job.ID, "paid-by-test")
	require.Nil(t, err)
	qu.Wait()

	_, err = svc.FetchJob(ctx, created.Job.ID, "")
	require.Nil(t, err)

	got, err = ca.Get(ctx, created.Job.ID)
	require.Nil(t, err)
	require.NotNil(t, got)
	assert.Equal(t, structs.COMPLETED, got.Status)
}

// recordingCache wraps a Cache and notes the status of every snapshot
// written through it.
type recordingCache struct {
	cache.Cache

	mu  sync.Mutex
	set []structs.Status
}

func (r *recordingCache) Set(ctx context.Context, j *structs.Job, ttl time.Duration) error {
	r.mu.Lock()
	r.set = append(r.set, j.Status)
	r.mu.Unlock()
	return r.Cache.Set(ctx, j, ttl)
}

func (r *recordingCache) statuses() []structs.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]structs.Status{}, r.set...)
}

func TestFetchJobCachesOnlyTerminalSnapshots(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := database.NewMemory()
	ca := &recordingCache{Cache: cache.NewMemory()}
	qu := queue_mock.NewMockQueue(ctrl)
	qu.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return("task-id", nil)
	gate := payment.NewGate(payment.NewStatic(), nil)
	opts := OptionsClientDefault()
	opts.SetDefaults()
	svc := &Service{db: db, qu: qu, cache: ca, gate: gate, pub: events.NewDiscard(), oracles: oracle.Default(), opts: opts}

	ctx := context.Background()
	created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{JobSpec: randomSpec(1, 402)})
	require.Nil(t, err)

	// no worker consumes the mock queue, so the job parks in QUERY_IN_PROGRESS
	_, err = svc.FetchJob(ctx, created.Job.ID, "paid-by-test")
	require.Nil(t, err)

	// a read of the in-flight job must not populate the cache: if a worker
	// finished & invalidated between our store read and the populate, we'd
	// pin the stale snapshot until the TTL expired
	resp, err := svc.FetchJob(ctx, created.Job.ID, "")
	require.Nil(t, err)
	assert.Equal(t, structs.QUERY_IN_PROGRESS, resp.Job.Status)

	got, err := ca.Get(ctx, created.Job.ID)
	require.Nil(t, err)
	assert.Nil(t, got)

	// the worker finishes it elsewhere, exactly the race above
	j, err := db.Job(ctx, created.Job.ID)
	require.Nil(t, err)
	value := 7.0
	_, err = svc.finishJob(ctx, j, &structs.Result{Value: &value}, nil)
	require.Nil(t, err)

	resp, err = svc.FetchJob(ctx, created.Job.ID, "")
	require.Nil(t, err)
	assert.Equal(t, structs.COMPLETED, resp.Job.Status)

	got, err = ca.Get(ctx, created.Job.ID)
	require.Nil(t, err)
	require.NotNil(t, got)
	assert.Equal(t, structs.COMPLETED, got.Status)

	// every snapshot that reached the cache was terminal
	for _, st := range ca.statuses() {
		assert.True(t, structs.IsFinalStatus(st), "cached a %s snapshot", st)
	}
}

func TestConfirmJob(t *testing.T) {
	svc, _, _, qu := newTestService(t)
	defer svc.Close()
	ctx := context.Background()

	created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{JobSpec: randomSpec(1, 402)})
	require.Nil(t, err)

	j, err := svc.ConfirmJob(ctx, created.Job.ID)

	require.Nil(t, err)
	assert.Equal(t, structs.QUERY_IN_PROGRESS, j.Status)
	assert.Equal(t, int64(2), j.Version)

	qu.Wait()

	// confirming again is an explicit error on this path, unlike the
	// challenge/retry path which just re-serves state
	_, err = svc.ConfirmJob(ctx, created.Job.ID)
	assert.True(t, errors.Is(err, ce.ErrInvalidState))
}

func TestConfirmJobNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	defer svc.Close()

	_, err := svc.ConfirmJob(context.Background(), "b9a2f5d0c4e14bb2a1a0f3a9d8c7e6f5")

	assert.True(t, errors.Is(err, ce.ErrNotFound))
}

func TestJobsPagination(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	defer svc.Close()
	ctx := context.Background()

	ids := []string{}
	for i := 0; i < 5; i++ {
		created, err := svc.CreateJob(ctx, &structs.CreateJobRequest{JobSpec: randomSpec(1, 402)})
		require.Nil(t, err)
		ids = append(ids, created.Job.ID)
	}

	resp, err := svc.Jobs(ctx, &structs.Query{Limit: 2})
	require.Nil(t, err)
	assert.Len(t, resp.Jobs, 2)
	assert.Equal(t, int64(5), resp.Pagination.Total)
	assert.True(t, resp.Pagination.HasMore)

	resp, err = svc.Jobs(ctx, &structs.Query{Limit: 10, Offset: 4})
	require.Nil(t, err)
	assert.Len(t, resp.Jobs, 1)
	assert.False(t, resp.Pagination.HasMore)

	resp, err = svc.Jobs(ctx, &structs.Query{JobIDs: []string{ids[0]}})
	require.Nil(t, err)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, ids[0], resp.Jobs[0].ID)
}
