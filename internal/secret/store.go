package secret

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// SecretStore provides a pluggable interface for storing sensitive data
// such as database passwords.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

var (
	ErrBadReference = errors.New("secret: reference must look like <store>:<name>")
	ErrUnknownStore = errors.New("secret: unknown store")
	ErrNotFound     = errors.New("secret: not found")
)

// EnvStore reads secrets from process environment variables.
type EnvStore struct{}

func NewEnvStore() *EnvStore { return &EnvStore{} }

func (EnvStore) Set(key string, value []byte) error { return os.Setenv(key, string(value)) }

func (EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (EnvStore) Delete(key string) error { return os.Unsetenv(key) }

// Resolver maps reference prefixes ("env", "keychain") to stores.
type Resolver struct {
	stores map[string]SecretStore
}

// NewResolver returns a resolver knowing the env and keychain stores.
func NewResolver() *Resolver {
	return &Resolver{stores: map[string]SecretStore{
		"env":      NewEnvStore(),
		"keychain": NewKeychainStore(),
	}}
}

// Register adds or replaces the store behind a prefix.
func (r *Resolver) Register(prefix string, store SecretStore) {
	r.stores[prefix] = store
}

// Resolve returns the secret named by ref, e.g. "env:FIREBIRD_PASSWORD".
func (r *Resolver) Resolve(ref string) (string, error) {
	prefix, name, ok := strings.Cut(ref, ":")
	if !ok || prefix == "" || name == "" {
		return "", fmt.Errorf("%w: %q", ErrBadReference, ref)
	}
	store, ok := r.stores[prefix]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStore, prefix)
	}
	value, err := store.Get(name)
	if err != nil {
		return "", fmt.Errorf("secret %s: %w", ref, err)
	}
	if len(value) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return string(value), nil
}
