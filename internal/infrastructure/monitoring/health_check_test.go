package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecker_AllHealthy(t *testing.T) {
	checker := NewHealthChecker()
	checker.AddCheck("memory", time.Second, func(ctx context.Context) error { return nil })
	checker.AddCheck("redis", time.Second, func(ctx context.Context) error { return nil })

	status := checker.CheckAll(context.Background())
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "ok", status.Checks["memory"])
	assert.Equal(t, "ok", status.Checks["redis"])
}

func TestHealthChecker_OneFailing(t *testing.T) {
	checker := NewHealthChecker()
	checker.AddCheck("memory", time.Second, func(ctx context.Context) error { return nil })
	checker.AddCheck("redis", time.Second, func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	status := checker.CheckAll(context.Background())
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "ok", status.Checks["memory"])
	assert.Equal(t, "connection refused", status.Checks["redis"])
}

func TestHealthChecker_NoChecks(t *testing.T) {
	status := NewHealthChecker().CheckAll(context.Background())
	assert.Equal(t, "ready", status.Status)
	assert.Empty(t, status.Checks)
}
