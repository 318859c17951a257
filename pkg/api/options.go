package api

import (
	"time"
)

const (
	defCacheTTL        = 15 * time.Second
	defMaxQueryRuntime = 5 * time.Minute
)

// Options passed to the charon API on creation
type Options struct {
	// CacheTTL is how long resolved job snapshots may be served from cache.
	CacheTTL time.Duration

	// MaxQueryRuntime is the absolute maximum time a single oracle query
	// is permitted to run for before the job is failed.
	MaxQueryRuntime time.Duration

	// RunWorkers registers job execution handlers on the queue, allowing
	// this process to work jobs (via Run). Leave off for API-only servers.
	RunWorkers bool

	// Debug enables per-request / per-job logging.
	Debug bool

	// PaymentAmount is the price per job (in PaymentCurrency).
	PaymentAmount float64

	// PaymentCurrency is the currency jobs are priced in.
	PaymentCurrency string

	// PayTo is the address advertised in payment instructions.
	PayTo string

	// VerifierURL, if set, points at an external payment verification
	// service. Unset means proofs are checked by the built-in static
	// verifier, which accepts anything non-empty (dev only!).
	VerifierURL string
}

// OptionsClientDefault runs a charon service that performs no job execution.
// This is intended either for;
// - clients who want to use the API libraries directly
// - processes serving the HTTP API, with workers running elsewhere
func OptionsClientDefault() *Options {
	return &Options{
		CacheTTL:        defCacheTTL,
		MaxQueryRuntime: defMaxQueryRuntime,
	}
}

// OptionsServerDefault runs a charon service that registers oracle handlers
// on the queue & executes jobs.
func OptionsServerDefault() *Options {
	return &Options{
		CacheTTL:        defCacheTTL,
		MaxQueryRuntime: defMaxQueryRuntime,
		RunWorkers:      true,
	}
}
