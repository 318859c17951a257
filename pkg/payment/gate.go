package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/structs"
)

const (
	defaultAmount   = 0.01
	defaultCurrency = "USDC"
	defaultTimeout  = 10 * time.Second
)

var defaultMethods = []string{"transfer"}

// Options configure the payment Gate.
type Options struct {
	// Amount charged per job, denominated in Currency
	Amount float64

	// Currency jobs are priced in (price jobs are re-denominated in the
	// base symbol of their pair)
	Currency string

	// Methods accepted by the verifier
	Methods []string

	// PayTo is the address payment should be sent to
	PayTo string

	// VerifierURL advertised in instructions, if the verifier is remote
	VerifierURL string

	// VerifyTimeout bounds a single verify call. A verify that doesn't
	// come back in time counts as rejected; the job stays unpaid and the
	// caller can retry.
	VerifyTimeout time.Duration
}

func (o *Options) SetDefaults() {
	if o.Amount <= 0 {
		o.Amount = defaultAmount
	}
	if o.Currency == "" {
		o.Currency = defaultCurrency
	}
	if o.Methods == nil || len(o.Methods) == 0 {
		o.Methods = defaultMethods
	}
	if o.VerifyTimeout <= 0 {
		o.VerifyTimeout = defaultTimeout
	}
}

// Gate decides whether a job still needs payment, builds payment
// instructions & checks proofs via its Verifier. It holds no state of its
// own; all job state lives in the database.
type Gate struct {
	verifier Verifier
	opts     *Options
}

// NewGate returns a Gate backed by the given verifier.
func NewGate(v Verifier, opts *Options) *Gate {
	if opts == nil {
		opts = &Options{}
	}
	opts.SetDefaults()
	return &Gate{verifier: v, opts: opts}
}

// RequiresPayment is true iff the job hasn't been paid for yet.
func (g *Gate) RequiresPayment(j *structs.Job) bool {
	return j.Status == structs.PENDING_PAYMENT
}

// Instructions builds a payment descriptor. Pure; no side effects.
func (g *Gate) Instructions(amount float64, currency string) *structs.PaymentInstructions {
	return &structs.PaymentInstructions{
		Amount:      amount,
		Currency:    currency,
		Methods:     g.opts.Methods,
		PayTo:       g.opts.PayTo,
		VerifierURL: g.opts.VerifierURL,
	}
}

// InstructionsFor builds the payment descriptor for the given job.
// Price jobs are denominated in the base symbol of their pair; everything
// else uses the configured currency.
func (g *Gate) InstructionsFor(j *structs.Job) *structs.PaymentInstructions {
	currency := g.opts.Currency
	if j.Kind == structs.KindPrice {
		if base := baseSymbol(j.Params.Pair); base != "" {
			currency = base
		}
	}
	return g.Instructions(g.opts.Amount, currency)
}

// Verify checks the given proof for the given job, bounded by the
// configured timeout. A timeout is a rejection, never an ambiguous state.
func (g *Gate) Verify(ctx context.Context, proof string, j *structs.Job) (*structs.Receipt, error) {
	if proof == "" {
		return nil, fmt.Errorf("%w no proof supplied", errors.ErrPaymentRejected)
	}

	in := g.InstructionsFor(j)
	ctx, cancel := context.WithTimeout(ctx, g.opts.VerifyTimeout)
	defer cancel()

	receipt, err := g.verifier.Verify(ctx, proof, j.ID, in.Amount, in.Currency)
	if err == nil {
		return receipt, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w verify timed out", errors.ErrPaymentRejected)
	}
	return nil, err
}

func baseSymbol(pair string) string {
	parts := strings.SplitN(pair, "/", 2)
	return strings.TrimSpace(parts[0])
}
