package jwt

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// Role is the coarse role stored in a token
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Permission names an action a role may perform
type Permission string

const (
	PermReadMessage  Permission = "message:read"
	PermWriteMessage Permission = "message:write"
	PermReadUser     Permission = "user:read"
)

var rolePermissions = map[Role][]Permission{
	RoleUser:  {PermReadMessage, PermWriteMessage, PermReadUser},
	RoleAdmin: {PermReadMessage, PermWriteMessage, PermReadUser},
}

// ValidRole reports whether r is a known role
func ValidRole(r Role) bool {
	_, ok := rolePermissions[r]
	return ok
}

// JWTClaims represents the claims in a JWT token.
// The subject of the token is the username.
type JWTClaims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// HasRole checks the role in the token
func (c *JWTClaims) HasRole(role Role) bool {
	return c.Role == role
}

// HasPermission checks whether the token's role grants the permission
func (c *JWTClaims) HasPermission(permission Permission) bool {
	for _, p := range rolePermissions[c.Role] {
		if p == permission {
			return true
		}
	}
	return false
}
