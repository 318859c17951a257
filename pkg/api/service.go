package api

import (
	"github.com/charonlabs/charon/internal/core"
	"github.com/charonlabs/charon/pkg/cache"
	"github.com/charonlabs/charon/pkg/database"
	"github.com/charonlabs/charon/pkg/events"
	"github.com/charonlabs/charon/pkg/oracle"
	"github.com/charonlabs/charon/pkg/payment"
	"github.com/charonlabs/charon/pkg/queue"
)

// New builds a charon API over postgres & redis. The queue, cache and
// event stream all share the queue's redis.
func New(dbOpts *database.Options, quOpts *queue.Options, opts *Options) (API, error) {
	if opts == nil {
		opts = OptionsClientDefault()
	}

	db, err := database.NewPostgres(dbOpts)
	if err != nil {
		return nil, err
	}

	qu, err := queue.NewAsynq(quOpts)
	if err != nil {
		return nil, err
	}

	ca, err := cache.NewRedis(quOpts.URL)
	if err != nil {
		return nil, err
	}

	pub, err := events.NewRedis(quOpts.URL)
	if err != nil {
		return nil, err
	}

	return core.NewService(db, qu, ca, gateFor(opts), pub, oracle.Default(), coreOptions(opts))
}

// NewStandalone builds a charon API that needs no external services at
// all: in-memory store & cache, in-process queue, static payment
// verifier. Jobs execute inside this process. State dies with it.
func NewStandalone(opts *Options) (API, error) {
	if opts == nil {
		opts = OptionsServerDefault()
	}
	opts.RunWorkers = true // nothing else will execute jobs

	return core.NewService(
		database.NewMemory(),
		queue.NewMemory(),
		cache.NewMemory(),
		gateFor(opts),
		events.NewDiscard(),
		oracle.Default(),
		coreOptions(opts),
	)
}

func gateFor(opts *Options) *payment.Gate {
	var verifier payment.Verifier = payment.NewStatic()
	if opts.VerifierURL != "" {
		verifier = payment.NewHTTP(opts.VerifierURL)
	}
	return payment.NewGate(verifier, &payment.Options{
		Amount:      opts.PaymentAmount,
		Currency:    opts.PaymentCurrency,
		PayTo:       opts.PayTo,
		VerifierURL: opts.VerifierURL,
	})
}

func coreOptions(opts *Options) *core.Options {
	return &core.Options{
		CacheTTL:        opts.CacheTTL,
		MaxQueryRuntime: opts.MaxQueryRuntime,
		RunWorkers:      opts.RunWorkers,
		Debug:           opts.Debug,
	}
}
