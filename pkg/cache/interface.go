package cache

import (
	"context"
	"time"

	"github.com/charonlabs/charon/pkg/structs"
)

// Cache is a read accelerator for job snapshots. It's never authoritative:
// a miss only costs a database read, and it's always safe to drop.
//
// Callers must Invalidate synchronously in the same control flow as any
// mutation, before any subsequent populate and before notifying
// subscribers, so a reader can never be served a pre-mutation snapshot.
type Cache interface {
	// Get returns the cached snapshot for the given job id, or nil on miss.
	Get(ctx context.Context, id string) (*structs.Job, error)

	// Set stores a snapshot with the given TTL.
	Set(ctx context.Context, j *structs.Job, ttl time.Duration) error

	// Invalidate drops the snapshot for the given job id, if any.
	Invalidate(ctx context.Context, id string) error

	Close() error
}
