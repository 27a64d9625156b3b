// Package health aggregates component readiness for the service shell.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. The engine still answers queries
	// (an unreachable embedding provider only forces lexical fallback).
	Degraded Status = "degraded"
	// Unhealthy indicates the backing store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding}
}

// Check runs health checks against all components. A failing database is
// Unhealthy; a failing embedder alone is Degraded since retrieval falls
// back to lexical search.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	dbOK := true
	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		dbOK = false
	} else {
		checks["database"] = CheckOK
	}

	embOK := true
	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
			embOK = false
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	switch {
	case !dbOK:
		status = Unhealthy
	case !embOK:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
