package ws

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/tkubota31/express-messagely/pkg/errors"
	"github.com/tkubota31/express-messagely/pkg/logger"
	"github.com/tkubota31/express-messagely/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send small control frames
	maxMessageSize = 4 * 1024
)

// Client is one websocket connection of an authenticated user
type Client struct {
	ID       string
	Username string
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
	log      *logger.Logger
}

type inbound struct {
	Type string `json:"type"`
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("Websocket read error", "client_id", c.ID, "error", err.Error())
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			c.reply("pong")
		}
	}
}

// reply never blocks the read loop
func (c *Client) reply(event string) {
	data, err := json.Marshal(Envelope{Type: event, Timestamp: time.Now().UTC()})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowAll || origin == "" || allowed[origin]
		},
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
}

// ServeWs authenticates the token query parameter (or Authorization
// header) and upgrades the connection.
func ServeWs(hub *Hub, tokens middleware.TokenValidator, allowedOrigins []string) gin.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)

	return func(c *gin.Context) {
		log := logger.FromContext(c)

		token := c.Query("token")
		if token == "" {
			token = middleware.BearerToken(c.GetHeader("Authorization"))
		}
		if token == "" {
			c.Error(apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "token is required"))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			log.Warn("Rejected websocket token", "error", err.Error())
			c.Error(apperrors.NewUnauthorizedError(apperrors.CodeInvalidToken, "Invalid or expired token"))
			c.Abort()
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("Error upgrading connection", "error", err.Error())
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			Username: claims.Username,
			conn:     conn,
			send:     make(chan []byte, 64),
			hub:      hub,
			log:      log,
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}
		log.Info("Websocket connection established", "client_id", client.ID, "username", client.Username)

		go client.writePump()
		go client.readPump()
	}
}
