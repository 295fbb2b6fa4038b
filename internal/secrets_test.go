package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func fullSecretStore() StaticSecretStore {
	return StaticSecretStore{
		secretShaPhrase:       "secretphrase",
		secretGatewayUser:     "api-user",
		secretGatewayPassword: "api-pass",
		secretInternalAuth:    "internal-code",
	}
}

func TestLoadSecrets(t *testing.T) {
	secrets, err := LoadSecrets(context.Background(), fullSecretStore())
	require.NoError(t, err)
	require.Equal(t, "secretphrase", secrets.ShaPhrase)
	require.Equal(t, "api-user", secrets.GatewayUser)
	require.Equal(t, "api-pass", secrets.GatewayPassword)
	require.Equal(t, "internal-code", secrets.InternalAuthCode)
}

func TestLoadSecretsFailsOnAnyMissing(t *testing.T) {
	store := fullSecretStore()
	delete(store, secretGatewayPassword)

	_, err := LoadSecrets(context.Background(), store)
	require.Error(t, err)
	require.Contains(t, err.Error(), secretGatewayPassword)
}

func TestSecretsOverride(t *testing.T) {
	secrets, err := LoadSecrets(context.Background(), fullSecretStore())
	require.NoError(t, err)

	secrets.Override(Secrets{ShaPhrase: "replaced"})
	require.Equal(t, "replaced", secrets.ShaPhrase)
	// untouched fields keep their loaded values
	require.Equal(t, "api-user", secrets.GatewayUser)
}
