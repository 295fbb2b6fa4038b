package services

import "context"

// SecretStore abstracts the managed secret vault the service reads
// credentials from at startup. Get returns the secret value for a
// named entry or an error when the entry is missing or the store is
// unreachable.
type SecretStore interface {
	Get(ctx context.Context, name string) (string, error)
}
