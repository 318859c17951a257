package cache

import (
	"context"
	"sync"
	"time"

	"github.com/charonlabs/charon/pkg/structs"
)

type memoryEntry struct {
	job     *structs.Job
	expires time.Time
}

// Memory is an in-memory Cache for single process deployments & tests.
// Expired entries are dropped lazily on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemory returns a new in-memory Cache.
func NewMemory() *Memory {
	return &Memory{entries: map[string]*memoryEntry{}}
}

// Close shuts down the cache.
func (m *Memory) Close() error {
	return nil
}

// Get returns the cached snapshot for the given job id, or nil on miss.
func (m *Memory) Get(ctx context.Context, id string) (*structs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	if timeNow().After(e.expires) {
		delete(m.entries, id)
		return nil, nil
	}
	return e.job.Copy(), nil
}

// Set stores a snapshot with the given TTL.
func (m *Memory) Set(ctx context.Context, j *structs.Job, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[j.ID] = &memoryEntry{job: j.Copy(), expires: timeNow().Add(ttl)}
	return nil
}

// Invalidate drops the snapshot for the given job id.
func (m *Memory) Invalidate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	return nil
}

// timeNow is a var so tests can pin the clock.
var timeNow = func() time.Time {
	return time.Now()
}
