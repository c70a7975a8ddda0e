package secrets

import (
	"context"
	"testing"

	"github.com/tkubota31/express-messagely/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "JWT_SECRET", envKey("jwt_secret"))
	assert.Equal(t, "JWT_SECRET", envKey("jwt-secret"))
	assert.Equal(t, "DB_PASSWORD", envKey("db.password"))
}

func TestDisabledVaultFallsBackToEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")

	m, err := NewVaultManager(VaultConfig{Enabled: false}, logger.Nop())
	require.NoError(t, err)
	defer m.Close()

	v, err := m.GetSecret(context.Background(), "jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	_, err = m.GetSecret(context.Background(), "missing_key")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	assert.Equal(t, "fallback", m.GetSecretWithDefault(context.Background(), "missing_key", "fallback"))
}

func TestEnabledVaultRequiresAddressAndToken(t *testing.T) {
	_, err := NewVaultManager(VaultConfig{Enabled: true}, logger.Nop())
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultManager(VaultConfig{Enabled: true, Address: "http://127.0.0.1:8200"}, logger.Nop())
	assert.ErrorIs(t, err, ErrNoVaultToken)
}

func TestStaticManager(t *testing.T) {
	s := Static{"jwt_secret": "abc"}
	v, err := s.GetSecret(context.Background(), "jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
	assert.Equal(t, "d", s.GetSecretWithDefault(context.Background(), "nope", "d"))
}
