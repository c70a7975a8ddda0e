package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tkubota31/express-messagely/internal/models"
	"github.com/tkubota31/express-messagely/internal/repository"
	"github.com/tkubota31/express-messagely/pkg/jwt"
	"github.com/tkubota31/express-messagely/pkg/logger"
)

// AuthResult is returned by Register and Login
type AuthResult struct {
	User  *models.User
	Token string
}

// UserService handles user-related operations
type UserService struct {
	users  repository.UserRepository
	tokens *jwt.Service
	log    *logger.Logger
	now    func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, tokens *jwt.Service, log *logger.Logger) *UserService {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &UserService{
		users:  users,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
}

// Register creates a new user and signs them in
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*AuthResult, error) {
	now := s.now().UTC()
	user := &models.User{
		Username:    req.Username,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		JoinAt:      now,
		LastLoginAt: &now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("register user: %w", err)
	}

	token, err := s.tokens.GenerateToken(user.Username, jwt.Role(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info("User registered", "username", user.Username)
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user and returns a JWT token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.Username, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLoginAt = &now

	token, err := s.tokens.GenerateToken(user.Username, jwt.Role(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUser returns the profile of username
func (s *UserService) GetUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
