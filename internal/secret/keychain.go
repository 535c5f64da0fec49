package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const keychainService = "tap-firebird"

// itemNotFound is the exit code of `security` for a missing item.
const itemNotFound = 44

type commandRunner func(name string, args ...string) ([]byte, error)

func runSecurity(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// KeychainStore implements SecretStore on the macOS Keychain through the
// `security` CLI. Entries live under the "tap-firebird" service.
type KeychainStore struct {
	service string
	run     commandRunner
}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{service: keychainService, run: runSecurity}
}

// Set stores a secret, replacing any existing entry.
func (k *KeychainStore) Set(key string, value []byte) error {
	_ = k.Delete(key)
	out, err := k.run("security", "add-generic-password",
		"-a", key,
		"-s", k.service,
		"-w", string(value),
		"-U",
	)
	if err != nil {
		return fmt.Errorf("keychain set: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Get returns nil without error when the entry does not exist.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := k.run("security", "find-generic-password",
		"-a", key,
		"-s", k.service,
		"-w",
	)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == itemNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("keychain get: %w", err)
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

func (k *KeychainStore) Delete(key string) error {
	_, err := k.run("security", "delete-generic-password",
		"-a", key,
		"-s", k.service,
	)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == itemNotFound {
		return nil
	}
	return err
}
