package models

import (
	"time"

	"github.com/tkubota31/express-messagely/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// PasswordCost is the bcrypt work factor used when hashing new passwords
var PasswordCost = bcrypt.DefaultCost

// User represents a registered user
type User struct {
	Username    string     `gorm:"primaryKey;size:64" json:"username"`
	Password    string     `gorm:"not null" json:"-"` // Never return password in JSON
	FirstName   string     `gorm:"not null" json:"first_name"`
	LastName    string     `gorm:"not null" json:"last_name"`
	Phone       string     `gorm:"not null" json:"phone"`
	Role        string     `gorm:"default:user" json:"role"`
	JoinAt      time.Time  `gorm:"not null" json:"join_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// UserSummary is the public view of a user embedded in message responses
type UserSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// RegisterRequest is the request structure for creating a new user
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=1,max=64"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
}

// LoginRequest is the request structure for user login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HashPassword hashes a password for storage
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// BeforeCreate is a GORM hook to hash the password before saving
func (u *User) BeforeCreate(tx *gorm.DB) error {
	hashedPassword, err := HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword

	if u.Role == "" {
		u.Role = string(jwt.RoleUser)
	}
	if u.JoinAt.IsZero() {
		u.JoinAt = time.Now()
	}

	return nil
}

// Summary converts a User to its public summary
func (u *User) Summary() UserSummary {
	return UserSummary{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}
