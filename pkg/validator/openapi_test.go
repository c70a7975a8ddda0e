package validator

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tkubota31/express-messagely/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `openapi: 3.0.3
info:
  title: test
  version: 1.0.0
paths:
  /api/v1/messages:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [to_username, body]
              properties:
                to_username:
                  type: string
                body:
                  type: string
      responses:
        '201':
          description: created
`

func newValidatedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSchema), 0o600))

	v, err := NewOpenAPIValidator(path)
	require.NoError(t, err)

	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.Use(v.Middleware())
	r.POST("/api/v1/messages", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/messages", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestValidRequestPasses(t *testing.T) {
	r := newValidatedRouter(t)
	w := post(r, "/api/v1/messages", `{"to_username":"bob","body":"hi"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestInvalidRequestRejected(t *testing.T) {
	r := newValidatedRouter(t)
	w := post(r, "/api/v1/messages", `{"body":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), errors.CodeInvalidRequest)
}

func TestUnknownRoutePassesThrough(t *testing.T) {
	r := newValidatedRouter(t)
	w := post(r, "/messages", `{}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBadSchemaFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o600))

	_, err := NewOpenAPIValidator(path)
	assert.Error(t, err)
}
