package service

import (
	"testing"

	"platefeed/internal/model"
	"platefeed/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	user, token, err := env.auth.Register(RegisterRequest{
		DisplayName: "Dana",
		Email:       "dana@example.com",
		Password:    "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, token)

	claims, err := util.ValidateToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	loggedIn, token2, err := env.auth.Login(LoginRequest{
		Email:    "dana@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token2)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.auth.Register(RegisterRequest{
		DisplayName: "First",
		Email:       "taken@example.com",
		Password:    "password123",
	})
	require.NoError(t, err)

	_, _, err = env.auth.Register(RegisterRequest{
		DisplayName: "Second",
		Email:       "taken@example.com",
		Password:    "password456",
	})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.auth.Register(RegisterRequest{
		DisplayName: "Dana",
		Email:       "dana@example.com",
		Password:    "correct-horse",
	})
	require.NoError(t, err)

	_, _, err = env.auth.Login(LoginRequest{
		Email:    "dana@example.com",
		Password: "wrong-horse",
	})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.auth.Login(LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}
