package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/structs"
)

// Price quotes a symbol pair. Without an upstream feed configured it
// synthesizes a quote: a stable per-pair base price plus a little jitter,
// which is plenty for demo & test deployments.
type Price struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPrice returns a Price handler.
func NewPrice() *Price {
	return &Price{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Kind this handler serves.
func (p *Price) Kind() structs.Kind {
	return structs.KindPrice
}

// Execute returns a quote for the job's pair.
func (p *Price) Execute(ctx context.Context, j *structs.Job) (*structs.Result, error) {
	pair := strings.TrimSpace(j.Params.Pair)
	if pair == "" {
		return nil, fmt.Errorf("%w price job has no pair", errors.ErrInvalidParams)
	}

	base := basePrice(pair)

	p.mu.Lock()
	jitter := 1 + (p.rng.Float64()-0.5)*0.02 // +-1%
	p.mu.Unlock()

	return &structs.Result{
		Pair:  pair,
		Price: base * jitter,
	}, nil
}

// basePrice derives a stable price in [1, 1000) from the pair itself, so
// the same pair quotes in the same ballpark across calls.
func basePrice(pair string) float64 {
	sum := sha256.Sum256([]byte(strings.ToUpper(pair)))
	n := binary.BigEndian.Uint64(sum[:8])
	return 1 + float64(n%999000)/1000
}
