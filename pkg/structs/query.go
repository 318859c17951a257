package structs

const (
	queryLimitDefault = 1000
	queryLimitMax     = 10000
)

type Query struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Filters
	JobIDs   []string `json:"job_ids,omitempty"`
	Kinds    []Kind   `json:"kinds,omitempty"`
	Statuses []Status `json:"statuses,omitempty"`
}

func (q *Query) Sanitize() {
	if q.Limit <= 0 {
		q.Limit = queryLimitDefault
	}
	if q.Limit > queryLimitMax {
		q.Limit = queryLimitMax
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.JobIDs == nil || len(q.JobIDs) == 0 {
		q.JobIDs = nil
	}
	if q.Kinds == nil || len(q.Kinds) == 0 {
		q.Kinds = nil
	}
	if q.Statuses == nil || len(q.Statuses) == 0 {
		q.Statuses = nil
	}
}

// Match reports whether the given job passes the query's filters
// (limit / offset are pagination, not filters, and aren't considered).
func (q *Query) Match(j *Job) bool {
	if q.JobIDs != nil && !containsString(q.JobIDs, j.ID) {
		return false
	}
	if q.Kinds != nil && !containsKind(q.Kinds, j.Kind) {
		return false
	}
	if q.Statuses != nil && !containsStatus(q.Statuses, j.Status) {
		return false
	}
	return true
}

func containsString(in []string, s string) bool {
	for _, i := range in {
		if i == s {
			return true
		}
	}
	return false
}

func containsKind(in []Kind, k Kind) bool {
	for _, i := range in {
		if i == k {
			return true
		}
	}
	return false
}

func containsStatus(in []Status, s Status) bool {
	for _, i := range in {
		if i == s {
			return true
		}
	}
	return false
}
