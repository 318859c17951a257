package queue

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/charonlabs/charon/internal/utils"
	"github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/structs"
)

// Memory is an in-process Queue: each submission runs its handler on a
// fresh goroutine. Used for single process deployments & tests. Enqueue
// never blocks on the handler.
type Memory struct {
	mu       sync.Mutex
	handlers map[structs.Kind]Handler
	wg       sync.WaitGroup
	done     chan struct{}
	closed   bool
}

// NewMemory returns a new in-process Queue.
func NewMemory() *Memory {
	return &Memory{
		handlers: map[structs.Kind]Handler{},
		done:     make(chan struct{}),
	}
}

// Register a handler for the given job kind.
func (m *Memory) Register(kind structs.Kind, h Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[kind] = h
	return nil
}

// Enqueue a job for execution on a new goroutine.
func (m *Memory) Enqueue(ctx context.Context, j *structs.Job) (string, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", fmt.Errorf("%w queue is closed", errors.ErrInvalidState)
	}
	h, ok := m.handlers[j.Kind]
	m.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("%w no handler for kind %s", errors.ErrNotSupported, j.Kind)
	}

	id := utils.NewRandomID()
	jobID := j.ID
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		// handlers get a background ctx: the request that triggered the
		// submission has already moved on
		err := h(context.Background(), jobID)
		if err != nil {
			log.Println("[Queue]", "handler for job", jobID, "errored:", err)
		}
	}()

	return id, nil
}

// Run blocks until Close is called.
func (m *Memory) Run() error {
	<-m.done
	return nil
}

// Close stops accepting work & waits for in-flight handlers.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.done)
	m.wg.Wait()
	return nil
}

// Wait blocks until all handlers enqueued so far have finished. Test
// helper; production callers subscribe to events instead.
func (m *Memory) Wait() {
	m.wg.Wait()
}
