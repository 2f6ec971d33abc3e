package health

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

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
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil.
func New(store StorePinger, embedding EmbeddingChecker) *Service {
	return &Service{store: store, embedding: embedding}
}

// Check probes all components concurrently. A failing probe marks the
// report Degraded, never an error: the endpoint itself always answers.
func (s *Service) Check(ctx context.Context) Report {
	var mu sync.Mutex
	checks := make(map[string]CheckResult)

	record := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			checks[name] = CheckError
		} else {
			checks[name] = CheckOK
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		record("search_backend", s.store.Ping(gctx))
		return nil
	})
	if s.embedding != nil {
		g.Go(func() error {
			record("embedding", s.embedding.HealthCheck(gctx))
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
