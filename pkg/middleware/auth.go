package middleware

import (
	"strings"

	"github.com/tkubota31/express-messagely/pkg/errors"
	"github.com/tkubota31/express-messagely/pkg/jwt"
	"github.com/tkubota31/express-messagely/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by JWTAuthMiddleware
const (
	ClaimsKey   = "claims"
	UsernameKey = "username"
)

// TokenValidator validates a bearer token
type TokenValidator interface {
	ValidateToken(token string) (*jwt.JWTClaims, error)
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return strings.TrimSpace(header)
}

// JWTAuthMiddleware checks that the request has a valid JWT and adds claims to the context
func JWTAuthMiddleware(tokens TokenValidator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Error(errors.NewUnauthorizedError(errors.CodeAuthRequired, "Authorization header is required"))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			log.Warn("Invalid JWT token", "error", err.Error(), "path", c.Request.URL.Path)
			c.Error(errors.NewUnauthorizedError(errors.CodeInvalidToken, "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UsernameKey, claims.Username)
		c.Set(logger.ContextKey, logger.FromContext(c).WithUsername(claims.Username))

		c.Next()
	}
}

// CurrentUser returns the authenticated username
func CurrentUser(c *gin.Context) (string, bool) {
	username := c.GetString(UsernameKey)
	return username, username != ""
}

func claimsFrom(c *gin.Context) (*jwt.JWTClaims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		c.Error(errors.NewUnauthorizedError(errors.CodeAuthRequired, "Authentication required"))
		c.Abort()
		return nil, false
	}

	claims, ok := v.(*jwt.JWTClaims)
	if !ok {
		c.Error(errors.NewInternalServerError(errors.CodeInternal, "Invalid JWT claims format"))
		c.Abort()
		return nil, false
	}
	return claims, true
}

// RequireRole returns a middleware that requires the user to have a specific role
func RequireRole(role jwt.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			return
		}

		if !claims.HasRole(role) {
			c.Error(errors.NewForbiddenError(errors.CodeForbidden, "Your role does not allow this operation"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequirePermission returns a middleware that requires the user to have a specific permission
func RequirePermission(permission jwt.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			return
		}

		if !claims.HasPermission(permission) {
			c.Error(errors.NewForbiddenError(errors.CodeForbidden, "You don't have permission to perform this operation"))
			c.Abort()
			return
		}

		c.Next()
	}
}
