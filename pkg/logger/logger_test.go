package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		out = append(out, rec)
	}
	return out
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", JSON: true, Output: &buf})

	log.Info("dropped")
	log.Warn("kept")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["msg"])
}

func TestScopedAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", JSON: true, Output: &buf}).
		WithComponent("ws").
		WithRequestID("req-1").
		WithUsername("alice")

	log.Info("hello")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "ws", records[0]["component"])
	assert.Equal(t, "req-1", records[0]["request_id"])
	assert.Equal(t, "alice", records[0]["username"])
}

func TestMiddlewareEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := New(Config{Level: "info", JSON: true, Output: &buf})

	r := gin.New()
	r.Use(Middleware(log))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "request completed", records[0]["msg"])
	assert.Equal(t, "abc", records[0]["request_id"])
	assert.EqualValues(t, http.StatusNoContent, records[0]["status"])
}
