package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckEmpty indicates no documents have been loaded yet.
	CheckEmpty CheckResult = "empty"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Documents int
}

// Service coordinates health checks.
type Service struct {
	cache CachePinger
	docs  DocumentCounter
}

// New creates a Service. cache can be nil when no fetch cache is configured.
func New(docs DocumentCounter, cache CachePinger) *Service {
	return &Service{docs: docs, cache: cache}
}

// Check runs health checks against all components. An empty document store
// is reported but does not degrade the service: search answers [] until the
// first ingestion succeeds.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	n := s.docs.Count()
	if n > 0 {
		checks["documents"] = CheckOK
	} else {
		checks["documents"] = CheckEmpty
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["fetch_cache"] = CheckError
		} else {
			checks["fetch_cache"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Documents: n}
}
