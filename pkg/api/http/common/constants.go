package common

const (
	// API_JOBS is used to get or create jobs
	API_JOBS = "/api/v1/jobs"

	// API_JOB is used to fetch a single job (optionally carrying a
	// payment proof)
	API_JOB = "/api/v1/jobs/{job_id}"

	// API_CONFIRM is used to confirm payment for a job settled out of
	// band (the legacy flow; new callers attach proofs to API_JOB)
	API_CONFIRM = "/api/v1/jobs/{job_id}/confirm"

	// HEADER_PAYMENT carries the payment proof on a job fetch
	HEADER_PAYMENT = "X-Payment"

	// PARAM_PROOF is the query-string fallback for the payment proof,
	// for callers that can't set headers
	PARAM_PROOF = "proof"
)
