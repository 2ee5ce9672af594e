package controller

import (
	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
)

const loginFailedMessage = "Invalid credentials"

// maskLoginError returns a sanitized login error for client responses.
// Validation failures look the same as wrong credentials, internal errors pass through.
func maskLoginError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, model.ErrInvalidCredentials) || errors.Is(err, model.ErrInvalidArgument) {
		return model.NewUserError(model.ErrInvalidCredentials, loginFailedMessage)
	}

	return err
}
