package api

import (
	"net/http"

	"github.com/tkubota31/express-messagely/internal/models"
	"github.com/tkubota31/express-messagely/internal/service"
	"github.com/tkubota31/express-messagely/pkg/logger"
	"github.com/tkubota31/express-messagely/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	users *service.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// RegisterRoutes mounts /auth; auth protects /auth/me
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/me", auth, h.Me)
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.FromContext(c).Warn("Error binding JSON for register", "error", err.Error())
		abortWith(c, invalidRequest(err))
		return
	}

	res, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		abortWith(c, mapServiceError(err, false))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": res.Token,
		"user":  res.User,
	})
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, invalidRequest(err))
		return
	}

	res, err := h.users.Login(c.Request.Context(), &req)
	if err != nil {
		abortWith(c, mapServiceError(err, false))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": res.Token})
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c *gin.Context) {
	username, ok := middleware.CurrentUser(c)
	if !ok {
		abortWith(c, authRequired())
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), username)
	if err != nil {
		abortWith(c, mapServiceError(err, false))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
