package database

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/structs"
)

func init() {
	timeNow = func() int64 { return 1000000 }
}

func testJob(id string, created int64) *structs.Job {
	return &structs.Job{
		JobSpec: structs.JobSpec{
			Kind:   structs.KindRandom,
			Params: structs.Params{Min: 1, Max: 10},
		},
		ID:        id,
		Status:    structs.PENDING_PAYMENT,
		Version:   0,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestMemoryInsertAndGet(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	err := db.InsertJob(ctx, testJob("a", 1))
	assert.Nil(t, err)

	found, err := db.Job(ctx, "a")
	assert.Nil(t, err)
	assert.Equal(t, "a", found.ID)
	assert.Equal(t, structs.PENDING_PAYMENT, found.Status)
	assert.Equal(t, int64(0), found.Version)
}

func TestMemoryInsertDuplicate(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	err := db.InsertJob(ctx, testJob("a", 1))
	assert.Nil(t, err)

	err = db.InsertJob(ctx, testJob("a", 2))
	assert.ErrorIs(t, err, errors.ErrInvalidArg)
}

func TestMemoryGetNotFound(t *testing.T) {
	db := NewMemory()

	_, err := db.Job(context.Background(), "nope")

	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	err := db.InsertJob(ctx, testJob("a", 1))
	assert.Nil(t, err)

	first, err := db.Job(ctx, "a")
	assert.Nil(t, err)
	first.Status = structs.COMPLETED // mutate the copy, not the store

	second, err := db.Job(ctx, "a")
	assert.Nil(t, err)
	assert.Equal(t, structs.PENDING_PAYMENT, second.Status)
}

func TestMemoryTransition(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	err := db.InsertJob(ctx, testJob("a", 1))
	assert.Nil(t, err)

	j, err := db.Transition(ctx, "a", structs.PENDING_PAYMENT, 0, &Mutation{Status: structs.PAYMENT_CONFIRMED})
	assert.Nil(t, err)
	assert.Equal(t, structs.PAYMENT_CONFIRMED, j.Status)
	assert.Equal(t, int64(1), j.Version)
	assert.Equal(t, timeNow(), j.UpdatedAt)
}

func TestMemoryTransitionStaleVersion(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	err := db.InsertJob(ctx, testJob("a", 1))
	assert.Nil(t, err)

	_, err = db.Transition(ctx, "a", structs.PENDING_PAYMENT, 0, &Mutation{Status: structs.PAYMENT_CONFIRMED})
	assert.Nil(t, err)

	// same read, second attempt: stale
	_, err = db.Transition(ctx, "a", structs.PENDING_PAYMENT, 0, &Mutation{Status: structs.PAYMENT_CONFIRMED})
	assert.ErrorIs(t, err, errors.ErrVersionMismatch)

	// no side effects from the rejected attempt
	j, err := db.Job(ctx, "a")
	assert.Nil(t, err)
	assert.Equal(t, structs.PAYMENT_CONFIRMED, j.Status)
	assert.Equal(t, int64(1), j.Version)
}

func TestMemoryTransitionWrongStatus(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	err := db.InsertJob(ctx, testJob("a", 1))
	assert.Nil(t, err)

	_, err = db.Transition(ctx, "a", structs.PAYMENT_CONFIRMED, 0, &Mutation{Status: structs.QUERY_IN_PROGRESS})
	assert.ErrorIs(t, err, errors.ErrVersionMismatch)
}

func TestMemoryTransitionNotFound(t *testing.T) {
	db := NewMemory()

	_, err := db.Transition(context.Background(), "nope", structs.PENDING_PAYMENT, 0, &Mutation{Status: structs.PAYMENT_CONFIRMED})

	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestMemoryTransitionSetsResult(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	j := testJob("a", 1)
	j.Status = structs.QUERY_IN_PROGRESS
	j.Version = 2
	err := db.InsertJob(ctx, j)
	assert.Nil(t, err)

	val := 4.2
	done, err := db.Transition(ctx, "a", structs.QUERY_IN_PROGRESS, 2, &Mutation{
		Status: structs.COMPLETED,
		Result: &structs.Result{Value: &val},
	})
	assert.Nil(t, err)
	assert.Equal(t, structs.COMPLETED, done.Status)
	assert.Equal(t, int64(3), done.Version)
	assert.NotNil(t, done.Result)
	assert.Equal(t, val, *done.Result.Value)
}

// Racing transitions from the same read must produce exactly one winner;
// everyone else sees a version mismatch and no second mutation happens.
func TestMemoryTransitionConcurrentSingleWinner(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	err := db.InsertJob(ctx, testJob("a", 1))
	assert.Nil(t, err)

	routines := 16
	wins := make(chan struct{}, routines)
	wg := sync.WaitGroup{}
	for i := 0; i < routines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.Transition(ctx, "a", structs.PENDING_PAYMENT, 0, &Mutation{Status: structs.PAYMENT_CONFIRMED})
			if err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)

	j, err := db.Job(ctx, "a")
	assert.Nil(t, err)
	assert.Equal(t, structs.PAYMENT_CONFIRMED, j.Status)
	assert.Equal(t, int64(1), j.Version)
}

func TestMemoryJobsPagination(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		j := testJob(fmt.Sprintf("job-%d", i), int64(i))
		if i%2 == 0 {
			j.Kind = structs.KindPrice
		}
		err := db.InsertJob(ctx, j)
		assert.Nil(t, err)
	}

	cases := []struct {
		Name        string
		Given       *structs.Query
		ExpectIDs   []string
		ExpectTotal int64
	}{
		{
			Name:        "AllOldestFirst",
			Given:       &structs.Query{Limit: 10},
			ExpectIDs:   []string{"job-0", "job-1", "job-2", "job-3", "job-4"},
			ExpectTotal: 5,
		},
		{
			Name:        "LimitPages",
			Given:       &structs.Query{Limit: 2},
			ExpectIDs:   []string{"job-0", "job-1"},
			ExpectTotal: 5,
		},
		{
			Name:        "OffsetPages",
			Given:       &structs.Query{Limit: 2, Offset: 4},
			ExpectIDs:   []string{"job-4"},
			ExpectTotal: 5,
		},
		{
			Name:        "OffsetPastEnd",
			Given:       &structs.Query{Limit: 2, Offset: 10},
			ExpectIDs:   []string{},
			ExpectTotal: 5,
		},
		{
			Name:        "FilterKind",
			Given:       &structs.Query{Limit: 10, Kinds: []structs.Kind{structs.KindPrice}},
			ExpectIDs:   []string{"job-0", "job-2", "job-4"},
			ExpectTotal: 3,
		},
		{
			Name:        "TotalIsFilteredCountNotPageSize",
			Given:       &structs.Query{Limit: 1, Kinds: []structs.Kind{structs.KindPrice}},
			ExpectIDs:   []string{"job-0"},
			ExpectTotal: 3,
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			jobs, total, err := db.Jobs(ctx, c.Given)
			assert.Nil(t, err)
			assert.Equal(t, c.ExpectTotal, total)
			ids := []string{}
			for _, j := range jobs {
				ids = append(ids, j.ID)
			}
			assert.Equal(t, c.ExpectIDs, ids)
		})
	}
}
