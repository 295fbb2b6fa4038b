package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"checkout/services"
)

// Secret names resolved from the secret store at startup.
const (
	secretShaPhrase       = "epdq-sha-phrase"
	secretGatewayUser     = "epdq-api-user"
	secretGatewayPassword = "epdq-api-password"
	secretInternalAuth    = "internal-auth-code"
)

// ErrSecretsNotLoaded is returned by signing-dependent operations that
// run before the secret phrase has been loaded. Callers should retry
// once startup completes; in practice main exits if loading fails.
var ErrSecretsNotLoaded = errors.New("secrets not loaded")

// Secrets caches the gateway credentials for the life of the process.
// Loaded once at startup and immutable afterwards, except through the
// explicit Override test seam. Reads need no locking: production fills
// the record once before the server starts serving.
type Secrets struct {
	ShaPhrase       string
	GatewayUser     string
	GatewayPassword string
	// Auth code handed to the internal instruction-data API; carried
	// here so that consumer shares the same fail-fast lifecycle.
	InternalAuthCode string
}

// LoadSecrets fetches every named secret from the store concurrently.
// Any single failure fails the whole load: the service must never run
// with partial credentials.
func LoadSecrets(ctx context.Context, store services.SecretStore) (*Secrets, error) {
	secrets := &Secrets{}

	targets := map[string]*string{
		secretShaPhrase:       &secrets.ShaPhrase,
		secretGatewayUser:     &secrets.GatewayUser,
		secretGatewayPassword: &secrets.GatewayPassword,
		secretInternalAuth:    &secrets.InternalAuthCode,
	}

	type result struct {
		name  string
		value string
		err   error
	}
	results := make(chan result, len(targets))
	for name := range targets {
		go func(name string) {
			value, err := store.Get(ctx, name)
			results <- result{name: name, value: value, err: err}
		}(name)
	}

	for range targets {
		res := <-results
		if res.err != nil {
			return nil, fmt.Errorf("load secret %s: %w", res.name, res.err)
		}
		*targets[res.name] = res.value
	}

	return secrets, nil
}

// Override replaces any non-empty fields of the cached record without
// touching the external store. Test and local-dev seam only.
func (s *Secrets) Override(partial Secrets) {
	if partial.ShaPhrase != "" {
		s.ShaPhrase = partial.ShaPhrase
	}
	if partial.GatewayUser != "" {
		s.GatewayUser = partial.GatewayUser
	}
	if partial.GatewayPassword != "" {
		s.GatewayPassword = partial.GatewayPassword
	}
	if partial.InternalAuthCode != "" {
		s.InternalAuthCode = partial.InternalAuthCode
	}
}

// EnvSecretStore resolves secrets from environment variables, mapping
// "epdq-sha-phrase" to EPDQ_SHA_PHRASE. Used for local development
// where no managed vault is available.
type EnvSecretStore struct{}

func (e EnvSecretStore) Get(_ context.Context, name string) (string, error) {
	envName := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	value := os.Getenv(envName)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not set", envName)
	}
	return value, nil
}

// StaticSecretStore serves secrets from a fixed map. Test use.
type StaticSecretStore map[string]string

func (s StaticSecretStore) Get(_ context.Context, name string) (string, error) {
	value, ok := s[name]
	if !ok {
		return "", fmt.Errorf("secret %s not found", name)
	}
	return value, nil
}
