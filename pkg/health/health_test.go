package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tkubota31/express-messagely/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseFailureIsUnhealthy(t *testing.T) {
	checker := NewChecker(logger.Nop(), time.Minute, "test")

	dbErr := error(nil)
	checker.RegisterDatabaseCheck(func(context.Context) error { return dbErr })

	checker.RunChecks(context.Background())
	assert.True(t, checker.IsSystemHealthy())

	dbErr = errors.New("connection refused")
	checker.RunChecks(context.Background())
	assert.False(t, checker.IsSystemHealthy())

	status := checker.GetStatus()
	assert.Equal(t, StatusDown, status["database"].Status)
	assert.Equal(t, "connection refused", status["database"].Error)
}

func TestCacheFailureOnlyDegrades(t *testing.T) {
	checker := NewChecker(logger.Nop(), time.Minute, "test")
	checker.RegisterCacheCheck("redis", func(context.Context) error { return errors.New("timeout") })

	var updates []bool
	checker.OnUpdate(func(healthy bool) { updates = append(updates, healthy) })

	checker.RunChecks(context.Background())
	assert.True(t, checker.IsSystemHealthy())
	assert.Equal(t, StatusDegraded, checker.GetStatus()["redis"].Status)
	assert.Equal(t, []bool{true}, updates)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	checker := NewChecker(logger.Nop(), time.Minute, "1.2.3")
	checker.RegisterDatabaseCheck(func(context.Context) error { return errors.New("down") })
	checker.RunChecks(context.Background())

	r := gin.New()
	r.GET("/health", checker.Handler())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "1.2.3", body["version"])
	assert.Contains(t, body["components"], "database")
}
