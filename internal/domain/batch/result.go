package batch

import "time"

// SourceStatus is the outcome of fetching one source in an ingestion batch.
type SourceStatus string

// Source status values.
const (
	StatusOK    SourceStatus = "ok"
	StatusError SourceStatus = "error"
)

// Result is the outcome of one source in an ingestion run.
type Result struct {
	source   string
	status   SourceStatus
	count    int
	duration time.Duration
	err      error
}

// NewOK creates a successful source result.
func NewOK(source string, count int, d time.Duration) Result {
	return Result{source: source, status: StatusOK, count: count, duration: d}
}

// NewError creates a failed source result.
func NewError(source string, err error, d time.Duration) Result {
	return Result{source: source, status: StatusError, err: err, duration: d}
}

// Source returns the source name.
func (r Result) Source() string { return r.source }

// Status returns the fetch outcome.
func (r Result) Status() SourceStatus { return r.status }

// Count returns the number of documents produced.
func (r Result) Count() int { return r.count }

// Duration returns the wall time spent on the source.
func (r Result) Duration() time.Duration { return r.duration }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Swap describes a published document snapshot.
type Swap struct {
	Loaded     int
	Duplicates int
}

// Report summarizes a whole ingestion run.
type Report struct {
	Sources    []Result
	Fetched    int
	Loaded     int
	Duplicates int
	Applied    bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed returns the number of sources that errored.
func (r Report) Failed() int {
	n := 0
	for _, s := range r.Sources {
		if s.Status() == StatusError {
			n++
		}
	}
	return n
}
