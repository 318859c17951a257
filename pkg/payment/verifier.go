package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charonlabs/charon/pkg/errors"
	"github.com/charonlabs/charon/pkg/structs"
)

// Verifier checks a payment proof against some backend and returns a
// definite verdict: a receipt, or errors.ErrPaymentRejected with a reason.
//
// Verify must be idempotent from the caller's point of view; re-checking
// an already-settled proof yields the same receipt and triggers no further
// billing side effects.
type Verifier interface {
	Verify(ctx context.Context, proof, jobID string, amount float64, currency string) (*structs.Receipt, error)
}

// Static is a verifier for disconnected / demo configurations. It accepts
// any non-empty proof and derives the transaction ref from the proof & job
// id, so repeated calls agree with each other.
type Static struct{}

// NewStatic returns a Static verifier.
func NewStatic() *Static {
	return &Static{}
}

// Verify accepts any non-empty proof.
func (s *Static) Verify(ctx context.Context, proof, jobID string, amount float64, currency string) (*structs.Receipt, error) {
	if proof == "" {
		return nil, fmt.Errorf("%w empty proof", errors.ErrPaymentRejected)
	}
	sum := sha256.Sum256([]byte(proof + ":" + jobID))
	return &structs.Receipt{
		TransactionRef: fmt.Sprintf("%x", sum[:16]),
		Amount:         amount,
		Currency:       currency,
	}, nil
}

type verifyRequest struct {
	Proof    string  `json:"proof"`
	JobID    string  `json:"job_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type verifyResponse struct {
	Verified       bool   `json:"verified"`
	TransactionRef string `json:"transaction_ref,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// HTTP is a verifier that defers the verdict to an external service.
// Any transport failure or timeout is reported as a rejection rather than
// left ambiguous; the job stays unpaid and the caller can simply retry.
type HTTP struct {
	url    string
	client *http.Client
}

// NewHTTP returns a verifier that POSTs proofs to the given endpoint.
func NewHTTP(url string) *HTTP {
	return &HTTP{url: url, client: &http.Client{}}
}

// Verify checks the proof with the remote verifier.
func (h *HTTP) Verify(ctx context.Context, proof, jobID string, amount float64, currency string) (*structs.Receipt, error) {
	body, err := json.Marshal(&verifyRequest{Proof: proof, JobID: jobID, Amount: amount, Currency: currency})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w verifier unreachable: %v", errors.ErrPaymentRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w verifier returned %d", errors.ErrPaymentRejected, resp.StatusCode)
	}

	out := verifyResponse{}
	err = json.NewDecoder(resp.Body).Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("%w undecodable verifier reply: %v", errors.ErrPaymentRejected, err)
	}
	if !out.Verified {
		reason := out.Reason
		if reason == "" {
			reason = "proof failed verification"
		}
		return nil, fmt.Errorf("%w %s", errors.ErrPaymentRejected, reason)
	}

	return &structs.Receipt{
		TransactionRef: out.TransactionRef,
		Amount:         amount,
		Currency:       currency,
	}, nil
}
