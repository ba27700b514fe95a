package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	healthy   = pingerFunc(func(context.Context) error { return nil })
	unhealthy = pingerFunc(func(context.Context) error { return errors.New("connection refused") })
)

func TestChecker_ReadyEndpoint(t *testing.T) {
	t.Run("全部正常", func(t *testing.T) {
		hc := NewChecker(healthy, healthy, nil, zap.NewNop())
		rec := httptest.NewRecorder()
		hc.Handler().ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/health/ready?full=1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		// 就绪检查同时包含存活检查
		assert.JSONEq(t, `{"database":"OK","redis":"OK","goroutine-threshold":"OK"}`, rec.Body.String())
	})

	t.Run("数据库不可用", func(t *testing.T) {
		hc := NewChecker(unhealthy, nil, nil, zap.NewNop())
		rec := httptest.NewRecorder()
		hc.Handler().ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/health/ready?full=1", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"database":"connection refused","goroutine-threshold":"OK"}`, rec.Body.String())
	})

	t.Run("存活检查不依赖数据库", func(t *testing.T) {
		hc := NewChecker(unhealthy, nil, nil, zap.NewNop())
		rec := httptest.NewRecorder()
		hc.Handler().LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestChecker_CheckHealth(t *testing.T) {
	hc := NewChecker(healthy, unhealthy, nil, zap.NewNop())
	s := hc.CheckHealth()

	assert.Equal(t, "degraded", s.Status)
	assert.Equal(t, "OK", s.Checks["database"])
	assert.Equal(t, "connection refused", s.Checks["redis"])
	assert.NotEmpty(t, s.Uptime)
}

func TestChecker_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewChecker(healthy, nil, reg, zap.NewNop())

	count, err := testutil.GatherAndCount(reg, "marinerefuge_healthcheck_status")
	assert.NoError(t, err)
	// goroutine-threshold 与 database
	assert.Equal(t, 2, count)
}
