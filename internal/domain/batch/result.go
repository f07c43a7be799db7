package batch

// ItemStatus is the processing outcome of a single catalog item.
type ItemStatus string

// Item status values.
const (
	StatusStored   ItemStatus = "stored"
	StatusRejected ItemStatus = "rejected"
)

// Result is the outcome of loading one product record.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewStored creates a successful result.
func NewStored(id string) Result { return Result{id: id, status: StatusStored} }

// NewRejected creates a failed result.
func NewRejected(id string, err error) Result {
	return Result{id: id, status: StatusRejected, err: err}
}

// ID returns the product identifier (may be empty for records without one).
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the rejection reason, if any.
func (r Result) Err() error { return r.err }

// Report summarizes a catalog load, in input order.
type Report struct {
	results []Result
}

// NewReport wraps per-item results.
func NewReport(results []Result) Report { return Report{results: results} }

// Results returns per-item outcomes in input order.
func (r Report) Results() []Result { return r.results }

// Total returns the number of processed records.
func (r Report) Total() int { return len(r.results) }

// Stored returns the number of records written to storage.
func (r Report) Stored() int { return r.count(StatusStored) }

// Rejected returns the number of records that were not written.
func (r Report) Rejected() int { return r.count(StatusRejected) }

// Failures returns the rejected results only.
func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.results {
		if res.status == StatusRejected {
			out = append(out, res)
		}
	}
	return out
}

func (r Report) count(s ItemStatus) int {
	n := 0
	for _, res := range r.results {
		if res.status == s {
			n++
		}
	}
	return n
}
