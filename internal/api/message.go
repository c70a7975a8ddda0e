package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tkubota31/express-messagely/internal/models"
	"github.com/tkubota31/express-messagely/internal/service"
	"github.com/tkubota31/express-messagely/pkg/jwt"
	"github.com/tkubota31/express-messagely/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// MessageController handles message-related API endpoints
type MessageController struct {
	messages      *service.MessageService
	hideForbidden bool
}

// NewMessageController creates a new message controller
func NewMessageController(messages *service.MessageService, hideForbidden bool) *MessageController {
	return &MessageController{
		messages:      messages,
		hideForbidden: hideForbidden,
	}
}

// RegisterRoutes mounts the message routes on an authenticated group
func (mc *MessageController) RegisterRoutes(rg *gin.RouterGroup) {
	msgGroup := rg.Group("/messages")
	{
		msgGroup.GET("/:id", middleware.RequirePermission(jwt.PermReadMessage), mc.GetMessage)
		msgGroup.POST("", middleware.RequirePermission(jwt.PermWriteMessage), mc.CreateMessage)
		msgGroup.POST("/:id/read", middleware.RequirePermission(jwt.PermWriteMessage), mc.MarkRead)
	}
}

// createdMessage is the response body of POST /messages
type createdMessage struct {
	ID           uint      `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

func parseMessageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		abortWith(c, invalidRequest(err).WithDetails("message id must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// GetMessage returns a message with both users expanded
func (mc *MessageController) GetMessage(c *gin.Context) {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		abortWith(c, authRequired())
		return
	}

	id, ok := parseMessageID(c)
	if !ok {
		return
	}

	detail, err := mc.messages.Get(c.Request.Context(), id, caller)
	if err != nil {
		abortWith(c, mapServiceError(err, mc.hideForbidden))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": detail})
}

// CreateMessage sends a message from the caller
func (mc *MessageController) CreateMessage(c *gin.Context) {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		abortWith(c, authRequired())
		return
	}

	var req models.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, invalidRequest(err))
		return
	}

	msg, err := mc.messages.Create(c.Request.Context(), caller, req)
	if err != nil {
		abortWith(c, mapServiceError(err, mc.hideForbidden))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": createdMessage{
		ID:           msg.ID,
		FromUsername: msg.FromUsername,
		ToUsername:   msg.ToUsername,
		Body:         msg.Body,
		SentAt:       msg.SentAt,
	}})
}

// MarkRead marks a received message as read
func (mc *MessageController) MarkRead(c *gin.Context) {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		abortWith(c, authRequired())
		return
	}

	id, ok := parseMessageID(c)
	if !ok {
		return
	}

	msg, err := mc.messages.MarkRead(c.Request.Context(), id, caller)
	if err != nil {
		abortWith(c, mapServiceError(err, mc.hideForbidden))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg.Receipt()})
}
