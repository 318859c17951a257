package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/structs"
)

// Memory is an in-memory Database. It's intended for single process
// deployments & tests; a mutex guards the map and every job handed out is
// a copy, so callers can never mutate stored state without going through
// Transition.
type Memory struct {
	mu   sync.Mutex
	jobs map[string]*structs.Job
}

// NewMemory returns a new in-memory Database.
//
// Each call returns an independent store; nothing is shared between
// instances (no package level registry).
func NewMemory() *Memory {
	return &Memory{jobs: map[string]*structs.Job{}}
}

// Close shuts down the database.
func (m *Memory) Close() error {
	return nil
}

// InsertJob writes a new job.
func (m *Memory) InsertJob(ctx context.Context, j *structs.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[j.ID]; ok {
		return fmt.Errorf("%w job %s already exists", errors.ErrInvalidArg, j.ID)
	}
	m.jobs[j.ID] = j.Copy()
	return nil
}

// Job returns the job with the given id.
func (m *Memory) Job(ctx context.Context, id string) (*structs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w %s", errors.ErrNotFound, id)
	}
	return j.Copy(), nil
}

// Jobs returns jobs matching the given query, oldest first, plus the total
// count of matches before pagination.
func (m *Memory) Jobs(ctx context.Context, q *structs.Query) ([]*structs.Job, int64, error) {
	m.mu.Lock()
	matched := []*structs.Job{}
	for _, j := range m.jobs {
		if q.Match(j) {
			matched = append(matched, j.Copy())
		}
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, k int) bool {
		if matched[i].CreatedAt == matched[k].CreatedAt {
			return matched[i].ID < matched[k].ID
		}
		return matched[i].CreatedAt < matched[k].CreatedAt
	})

	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []*structs.Job{}, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

// Transition applies the mutation iff status & version match the stored job.
func (m *Memory) Transition(ctx context.Context, id string, status structs.Status, version int64, mut *Mutation) (*structs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w %s", errors.ErrNotFound, id)
	}
	if j.Status != status || j.Version != version {
		return nil, fmt.Errorf("%w job %s is at (%s, %d) not (%s, %d)", errors.ErrVersionMismatch, id, j.Status, j.Version, status, version)
	}

	j.Status = mut.Status
	if mut.Result != nil {
		j.Result = mut.Result
	}
	j.Version++
	j.UpdatedAt = timeNow()
	return j.Copy(), nil
}
