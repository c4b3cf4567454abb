package monitoring

import (
	"context"
	"sync"
	"time"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

type healthCheck struct {
	name    string
	timeout time.Duration
	check   CheckFunc
}

// HealthChecker aggregates named dependency probes for the readiness
// endpoint.
type HealthChecker struct {
	checks []healthCheck
	mu     sync.RWMutex
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

func (h *HealthChecker) AddCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.checks = append(h.checks, healthCheck{name: name, timeout: timeout, check: check})
}

// CheckAll runs every registered probe. One failing probe marks the
// whole status not ready; the rest still run so the response names
// every unhealthy dependency.
func (h *HealthChecker) CheckAll(ctx context.Context) HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	for _, check := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, check.timeout)
		err := check.check(checkCtx)
		cancel()

		if err != nil {
			status.Status = "not_ready"
			status.Checks[check.name] = err.Error()
			continue
		}
		status.Checks[check.name] = "ok"
	}

	return status
}
