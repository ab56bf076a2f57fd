package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// HealthStatus grades a dependency check.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) rank() int {
	switch s {
	case HealthStatusUnhealthy:
		return 2
	case HealthStatusDegraded:
		return 1
	default:
		return 0
	}
}

// HealthCheckResult is one dependency's verdict.
type HealthCheckResult struct {
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Elapsed   time.Duration  `json:"elapsed_ns"`
	CheckedAt time.Time      `json:"checked_at"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker checks one dependency. Checkers fill Status and Message;
// the registry stamps Elapsed and CheckedAt.
type HealthChecker func(ctx context.Context) HealthCheckResult

// HealthRegistry fans checks out over the worker's dependencies: the
// appointment store, the Redis lock service, and the outbox backlog.
type HealthRegistry struct {
	mu       sync.Mutex
	checkers map[string]HealthChecker
}

// NewHealthRegistry returns an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: make(map[string]HealthChecker)}
}

// Register adds the named checker, replacing any previous one.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// OverallHealth aggregates every registered check. Status is the worst
// individual verdict.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// ToJSON renders the report for the healthz endpoint.
func (h OverallHealth) ToJSON() ([]byte, error) {
	return json.Marshal(h)
}

// GetOverallHealth runs all checks concurrently and aggregates them. An
// empty registry reports healthy.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	r.mu.Lock()
	checkers := make(map[string]HealthChecker, len(r.checkers))
	for name, checker := range r.checkers {
		checkers[name] = checker
	}
	r.mu.Unlock()

	overall := OverallHealth{
		Status: HealthStatusHealthy,
		Checks: make(map[string]HealthCheckResult, len(checkers)),
	}

	var wg sync.WaitGroup
	var resultMu sync.Mutex
	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, check HealthChecker) {
			defer wg.Done()
			start := time.Now()
			result := check(ctx)
			result.Elapsed = time.Since(start)
			result.CheckedAt = time.Now()

			resultMu.Lock()
			overall.Checks[name] = result
			if result.Status.rank() > overall.Status.rank() {
				overall.Status = result.Status
			}
			resultMu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	overall.Timestamp = time.Now()
	return overall
}

// DatabaseHealthChecker pings the appointment store. The engine cannot
// schedule anything without it, so a failed ping is unhealthy.
func DatabaseHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{
				Status:  HealthStatusUnhealthy,
				Message: "database ping failed: " + err.Error(),
			}
		}
		return HealthCheckResult{
			Status:  HealthStatusHealthy,
			Message: "database reachable",
		}
	}
}

// RedisHealthChecker pings the Redis lock service. It only serializes
// command handling and holds no scheduling state, so a failed ping
// degrades rather than fails.
func RedisHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{
				Status:  HealthStatusDegraded,
				Message: "redis ping failed: " + err.Error(),
			}
		}
		return HealthCheckResult{
			Status:  HealthStatusHealthy,
			Message: "redis reachable",
		}
	}
}

// OutboxBacklogChecker watches the number of events awaiting publish. A
// backlog past the threshold means the relay is falling behind the
// command rate; notifications still drain eventually, so it degrades
// rather than fails.
func OutboxBacklogChecker(pending func(ctx context.Context) (int, error), threshold int) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		n, err := pending(ctx)
		if err != nil {
			return HealthCheckResult{
				Status:  HealthStatusDegraded,
				Message: "outbox backlog count failed: " + err.Error(),
			}
		}

		result := HealthCheckResult{
			Status:  HealthStatusHealthy,
			Message: fmt.Sprintf("%d events awaiting publish", n),
			Details: map[string]any{"pending": n, "threshold": threshold},
		}
		if n > threshold {
			result.Status = HealthStatusDegraded
			result.Message = fmt.Sprintf("outbox backlog %d exceeds threshold %d", n, threshold)
		}
		return result
	}
}
