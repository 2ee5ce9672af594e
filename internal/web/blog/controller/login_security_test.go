package controller

import (
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
)

// TestMaskLoginErrorInvalidCredentials ensures invalid credentials are preserved as a safe error message.
func TestMaskLoginErrorInvalidCredentials(t *testing.T) {
	err := maskLoginError(errors.Wrap(model.ErrInvalidCredentials, "user alice"))
	require.Error(t, err)
	require.True(t, errors.Is(err, model.ErrInvalidCredentials))
	require.Equal(t, loginFailedMessage, err.Error())
}

// TestMaskLoginErrorValidation ensures validation details are not leaked by login.
func TestMaskLoginErrorValidation(t *testing.T) {
	err := maskLoginError(model.NewUserError(model.ErrInvalidArgument, "password too long"))
	require.True(t, errors.Is(err, model.ErrInvalidCredentials))
	require.Equal(t, loginFailedMessage, err.Error())
}

// TestMaskLoginErrorInternal ensures internal errors keep their 500 status.
func TestMaskLoginErrorInternal(t *testing.T) {
	err := maskLoginError(errors.New("db down"))
	require.Error(t, err)
	require.False(t, errors.Is(err, model.ErrInvalidCredentials))
	require.Equal(t, 500, StatusOf(err))
}

// TestMaskLoginErrorNil ensures nil errors remain nil.
func TestMaskLoginErrorNil(t *testing.T) {
	require.NoError(t, maskLoginError(nil))
}
