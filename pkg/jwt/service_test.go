package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc, err := NewService("test-secret", time.Hour, "messagely")
	require.NoError(t, err)

	token, err := svc.GenerateToken("alice", RoleUser)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice", claims.Subject)
	assert.True(t, claims.HasRole(RoleUser))
	assert.True(t, claims.HasPermission(PermWriteMessage))
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer, err := NewService("secret-a", time.Hour, "messagely")
	require.NoError(t, err)
	verifier, err := NewService("secret-b", time.Hour, "messagely")
	require.NoError(t, err)

	token, err := issuer.GenerateToken("alice", RoleUser)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	svc, err := NewService("test-secret", time.Minute, "messagely")
	require.NoError(t, err)

	issuedAt := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issuedAt }
	token, err := svc.GenerateToken("alice", RoleUser)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc, err := NewService("test-secret", time.Hour, "")
	require.NoError(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService("", time.Hour, "messagely")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	svc, err := NewService("test-secret", time.Hour, "messagely")
	require.NoError(t, err)

	token, err := svc.GenerateToken("mallory", Role("superuser"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
