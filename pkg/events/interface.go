// Package events pushes job state changes to subscribers. Delivery is at
// least once; consumers must tolerate duplicates & reordering by checking
// the event's status / version against what they've already seen.
package events

import (
	"context"

	"github.com/charonlabs/charon/pkg/structs"
)

// Event describes one completed job transition.
type Event struct {
	JobID   string          `json:"job_id"`
	Status  structs.Status  `json:"status"`
	Version int64           `json:"version"`
	Result  *structs.Result `json:"result,omitempty"`
}

// Publisher pushes events out to whatever channel subscribers listen on.
// Publishing is best effort; the job state in the database is the truth
// and a dropped event only delays a poller.
type Publisher interface {
	Publish(ctx context.Context, ev *Event) error
	Close() error
}

// Discard is a Publisher that drops everything; used by client-only
// deployments that never mutate jobs.
type Discard struct{}

// NewDiscard returns a Publisher that drops all events.
func NewDiscard() *Discard {
	return &Discard{}
}

func (d *Discard) Publish(ctx context.Context, ev *Event) error {
	return nil
}

func (d *Discard) Close() error {
	return nil
}
