package api

import (
	"errors"

	"github.com/tkubota31/express-messagely/internal/service"
	apperrors "github.com/tkubota31/express-messagely/pkg/errors"

	"github.com/gin-gonic/gin"
)

// abortWith pushes err for the error middleware and stops the chain
func abortWith(c *gin.Context, err *apperrors.AppError) {
	c.Error(err)
	c.Abort()
}

func messageNotFound() *apperrors.AppError {
	return apperrors.NewNotFoundError(apperrors.CodeMessageNotFound, "Message not found")
}

// mapServiceError translates service sentinels into HTTP errors.
// With hideForbidden a message the caller may not see is reported as missing.
func mapServiceError(err error, hideForbidden bool) *apperrors.AppError {
	switch {
	case errors.Is(err, service.ErrMessageNotFound):
		return messageNotFound().Wrap(err)
	case errors.Is(err, service.ErrRecipientNotFound):
		return apperrors.NewNotFoundError(apperrors.CodeRecipientNotFound, "Recipient does not exist").Wrap(err)
	case errors.Is(err, service.ErrUserNotFound):
		return apperrors.NewNotFoundError(apperrors.CodeUserNotFound, "User not found").Wrap(err)
	case errors.Is(err, service.ErrForbidden):
		if hideForbidden {
			return messageNotFound().Wrap(err)
		}
		return apperrors.NewForbiddenError(apperrors.CodeForbidden, "You are not allowed to access this message").Wrap(err)
	case errors.Is(err, service.ErrEmptyBody):
		return apperrors.NewBadRequestError(apperrors.CodeInvalidMessage, "Message body must not be empty").Wrap(err)
	case errors.Is(err, service.ErrSelfMessage):
		return apperrors.NewBadRequestError(apperrors.CodeInvalidMessage, "You cannot send a message to yourself").Wrap(err)
	case errors.Is(err, service.ErrInvalidInput):
		return apperrors.NewBadRequestError(apperrors.CodeInvalidMessage, "Invalid message").Wrap(err)
	case errors.Is(err, service.ErrAlreadyRead):
		return apperrors.NewConflictError(apperrors.CodeAlreadyRead, "Message has already been read").Wrap(err)
	case errors.Is(err, service.ErrUserAlreadyExists):
		return apperrors.NewConflictError(apperrors.CodeUserExists, "Username is already taken").Wrap(err)
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorizedError(apperrors.CodeInvalidCredentials, "Invalid username or password").Wrap(err)
	default:
		return apperrors.FromError(err)
	}
}

func invalidRequest(err error) *apperrors.AppError {
	return apperrors.NewBadRequestError(apperrors.CodeInvalidRequest, "Invalid request format").
		WithDetails(err.Error()).
		Wrap(err)
}

func authRequired() *apperrors.AppError {
	return apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "Authentication required")
}
