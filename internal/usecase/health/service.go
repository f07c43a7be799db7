package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 2 * time.Second

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates search runs but some collaborator is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog cannot be read.
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

// Component names used as Report.Checks keys.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	Products int
}

// Service coordinates health checks.
type Service struct {
	catalog   Catalog
	embedding EmbeddingChecker
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a Service. embedding can be nil.
func New(catalog Catalog, embedding EmbeddingChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, embedding: embedding, timeout: DefaultCheckTimeout, logger: logger}
}

// Check queries all components concurrently. A database failure makes the service
// unhealthy; an embedding failure only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	var (
		wg       sync.WaitGroup
		dbErr    error
		embErr   error
		products int
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if dbErr = s.catalog.Ping(cctx); dbErr != nil {
			return
		}
		products, dbErr = s.catalog.Count(cctx)
	}()

	if s.embedding != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			embErr = s.embedding.HealthCheck(cctx)
		}()
	}

	wg.Wait()

	checks := map[string]CheckResult{ComponentDatabase: s.result(ComponentDatabase, dbErr)}
	if s.embedding != nil {
		checks[ComponentEmbedding] = s.result(ComponentEmbedding, embErr)
	}

	status := Healthy
	switch {
	case dbErr != nil:
		status = Unhealthy
	case embErr != nil:
		status = Degraded
	}

	return Report{Status: status, Checks: checks, Products: products}
}

func (s *Service) result(component string, err error) CheckResult {
	if err != nil {
		s.logger.Warn("Health check failed", zap.String("component", component), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
