package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
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
	// SnapshotAge is the age of the in-process snapshot, zero when none is
	// loaded.
	SnapshotAge time.Duration
	// SnapshotSize is the record count of the in-process snapshot.
	SnapshotSize int
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	snaps     SnapshotHolder
	embedding EmbeddingChecker
	// maxSnapshotAge marks a loaded snapshot unhealthy once it is older than
	// this. Zero disables the age bound.
	maxSnapshotAge time.Duration
}

// New creates a Service. snaps and embedding can be nil; their checks are
// then omitted from the report.
func New(store StorePinger, snaps SnapshotHolder, embedding EmbeddingChecker, maxSnapshotAge time.Duration) *Service {
	return &Service{store: store, snaps: snaps, embedding: embedding, maxSnapshotAge: maxSnapshotAge}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	report := Report{}

	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = CheckError
	} else {
		checks["store"] = CheckOK
	}

	if s.snaps != nil {
		if snap := s.snaps.Current(); snap == nil {
			checks["snapshot"] = CheckError
		} else {
			report.SnapshotAge = snap.Age()
			report.SnapshotSize = snap.Len()
			if s.maxSnapshotAge > 0 && report.SnapshotAge > s.maxSnapshotAge {
				checks["snapshot"] = CheckError
			} else {
				checks["snapshot"] = CheckOK
			}
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	if checks["store"] == CheckError {
		// Every tier sits on the store; nothing works without it.
		status = Unhealthy
	} else {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	report.Status = status
	report.Checks = checks
	return report
}
