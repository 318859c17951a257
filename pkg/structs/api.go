package structs

type CreateJobRequest struct {
	JobSpec `json:",inline"`
}

type CreateJobResponse struct {
	*Job `json:",inline"`

	Payment *PaymentInstructions `json:"payment"`
}

// FetchRequest asks for a job, optionally attaching a payment proof.
// The proof is opaque here; it's handed to the verifier as-is.
type FetchRequest struct {
	JobID string `json:"job_id"`
	Proof string `json:"proof,omitempty"`
}

// FetchResponse is either a job snapshot or a payment-required challenge
// carrying instructions the caller can pay against and retry with.
type FetchResponse struct {
	*Job `json:",inline"`

	PaymentRequired bool                 `json:"payment_required,omitempty"`
	JobID           string               `json:"job_id,omitempty"`
	Payment         *PaymentInstructions `json:"payment,omitempty"`

	// Reason is set when a supplied proof was rejected
	Reason string `json:"reason,omitempty"`
}

type Pagination struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

type ListJobsResponse struct {
	Jobs       []*Job      `json:"jobs"`
	Pagination *Pagination `json:"pagination"`
}
