package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/tkubota31/express-messagely/pkg/errors"
	"github.com/tkubota31/express-messagely/pkg/jwt"
	"github.com/tkubota31/express-messagely/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Hub, *jwt.Service, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := jwt.NewService("test-secret", time.Hour, "messagely")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger.Nop())
	go hub.Run(ctx)

	r := gin.New()
	r.Use(apperrors.ErrorHandler())
	r.GET("/ws", ServeWs(hub, tokens, nil))

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, tokens, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestNotifyReachesUser(t *testing.T) {
	hub, tokens, srv := newTestServer(t)

	token, err := tokens.GenerateToken("bob", jwt.RoleUser)
	require.NoError(t, err)

	conn, _, err := dial(t, srv, token)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ActiveConnections() == 1 }, time.Second, 10*time.Millisecond)

	hub.Notify("alice", "message.created", map[string]int{"id": 1})
	hub.Notify("bob", "message.created", map[string]int{"id": 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Type    string         `json:"type"`
		Content map[string]int `json:"content"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "message.created", env.Type)
	assert.Equal(t, 2, env.Content["id"], "bob must only see his own events")
}

func TestPingPong(t *testing.T) {
	_, tokens, srv := newTestServer(t)

	token, err := tokens.GenerateToken("bob", jwt.RoleUser)
	require.NoError(t, err)

	conn, _, err := dial(t, srv, token)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, "pong", env.Type)
}

func TestRejectsBadToken(t *testing.T) {
	_, _, srv := newTestServer(t)

	_, resp, err := dial(t, srv, "garbage")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, tokens, srv := newTestServer(t)

	token, err := tokens.GenerateToken("bob", jwt.RoleUser)
	require.NoError(t, err)

	conn, _, err := dial(t, srv, token)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ActiveConnections() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ActiveConnections() == 0 }, 2*time.Second, 10*time.Millisecond)
}
