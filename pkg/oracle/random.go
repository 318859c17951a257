package oracle

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/structs"
)

// Random draws a value uniformly from [min, max].
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a Random handler with its own seeded source.
func NewRandom() *Random {
	return &Random{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Kind this handler serves.
func (r *Random) Kind() structs.Kind {
	return structs.KindRandom
}

// Execute draws the value.
func (r *Random) Execute(ctx context.Context, j *structs.Job) (*structs.Result, error) {
	min, max := j.Params.Min, j.Params.Max
	if min >= max {
		// creation validates this; getting here means the job was corrupted
		return nil, fmt.Errorf("%w min %v must be less than max %v", errors.ErrInvalidParams, min, max)
	}

	r.mu.Lock()
	value := min + r.rng.Float64()*(max-min)
	r.mu.Unlock()

	return &structs.Result{Value: &value}, nil
}
