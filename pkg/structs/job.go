package structs

// Params are the kind-specific inputs of a job. They're validated on
// creation and immutable afterwards; only the fields for the job's kind
// are meaningful.
type Params struct {
	// Min / Max bound the value drawn by a random job. Min must be
	// strictly less than Max.
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`

	// Pair is the symbol pair a price job quotes, eg. "SOL/USDC"
	Pair string `json:"pair,omitempty"`

	// URL is the target a webhook job fires at
	URL string `json:"url,omitempty"`
}

// Result is set once a job reaches an end state. Exactly one of the
// kind-specific payload or Error is populated.
type Result struct {
	// Value is the number drawn by a random job
	Value *float64 `json:"value,omitempty"`

	// Pair / Price are the quote returned by a price job
	Pair  string  `json:"pair,omitempty"`
	Price float64 `json:"price,omitempty"`

	// Delivered / StatusCode describe the outbound request of a webhook job
	Delivered  bool `json:"delivered,omitempty"`
	StatusCode int  `json:"status_code,omitempty"`

	// Error is a human readable reason, set only on FAILED jobs
	Error string `json:"error,omitempty"`
}

// JobSpec are fields that can be set when a job is created
type JobSpec struct {
	Kind   Kind   `json:"kind"`
	Params Params `json:"params"`
}

// Job is one request for an external computation, tracked through a
// payment-gated lifecycle.
type Job struct {
	JobSpec `json:",inline"`

	// ID is a unique identifier for this job
	ID string `json:"id"`

	// Status is the current lifecycle state of this job
	Status Status `json:"status"`

	// Version is bumped by exactly one on every accepted mutation;
	// it's used for optimistic locking on updates.
	Version int64 `json:"version"`

	// Result is present only once the job is COMPLETED or FAILED
	Result *Result `json:"result,omitempty"`

	// CreatedAt is the time this job was created unix time in seconds
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the time this job was last updated unix time in seconds
	UpdatedAt int64 `json:"updated_at"`
}

// Copy returns a deep copy of the job; stores hand these out so callers
// can't reach into shared state.
func (j *Job) Copy() *Job {
	dupe := *j
	if j.Result != nil {
		res := *j.Result
		if j.Result.Value != nil {
			v := *j.Result.Value
			res.Value = &v
		}
		dupe.Result = &res
	}
	return &dupe
}
