package api

import (
	"net/http"

	"github.com/tkubota31/express-messagely/internal/service"
	"github.com/tkubota31/express-messagely/pkg/jwt"
	"github.com/tkubota31/express-messagely/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// UserController serves user profiles and their message lists
type UserController struct {
	users    *service.UserService
	messages *service.MessageService
}

// NewUserController creates a new UserController
func NewUserController(users *service.UserService, messages *service.MessageService) *UserController {
	return &UserController{users: users, messages: messages}
}

// RegisterRoutes mounts the user routes on an authenticated group
func (uc *UserController) RegisterRoutes(rg *gin.RouterGroup) {
	userGroup := rg.Group("/users")
	{
		userGroup.GET("/:username", middleware.RequirePermission(jwt.PermReadUser), uc.GetUser)
		userGroup.GET("/:username/to", middleware.RequirePermission(jwt.PermReadMessage), uc.ListReceived)
		userGroup.GET("/:username/from", middleware.RequirePermission(jwt.PermReadMessage), uc.ListSent)
	}
}

// GetUser returns a user's profile
func (uc *UserController) GetUser(c *gin.Context) {
	user, err := uc.users.GetUser(c.Request.Context(), c.Param("username"))
	if err != nil {
		abortWith(c, mapServiceError(err, false))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListReceived returns messages sent to the caller
func (uc *UserController) ListReceived(c *gin.Context) {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		abortWith(c, authRequired())
		return
	}

	msgs, err := uc.messages.ListReceived(c.Request.Context(), c.Param("username"), caller)
	if err != nil {
		abortWith(c, mapServiceError(err, false))
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// ListSent returns messages sent by the caller
func (uc *UserController) ListSent(c *gin.Context) {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		abortWith(c, authRequired())
		return
	}

	msgs, err := uc.messages.ListSent(c.Request.Context(), c.Param("username"), caller)
	if err != nil {
		abortWith(c, mapServiceError(err, false))
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
