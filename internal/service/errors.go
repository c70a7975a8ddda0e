package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers match these with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrAlreadyRead  = errors.New("message already read")

	ErrUserAlreadyExists  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

var (
	ErrMessageNotFound   = fmt.Errorf("message: %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user: %w", ErrNotFound)
	ErrRecipientNotFound = fmt.Errorf("recipient: %w", ErrNotFound)

	ErrEmptyBody   = fmt.Errorf("message body must not be empty: %w", ErrInvalidInput)
	ErrSelfMessage = fmt.Errorf("cannot send a message to yourself: %w", ErrInvalidInput)
	ErrNoRecipient = fmt.Errorf("recipient is required: %w", ErrInvalidInput)
)

// errorKind labels an error for metrics
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrAlreadyRead):
		return "already_read"
	default:
		return "internal"
	}
}
