package secret

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeychainGetUsesService(t *testing.T) {
	var calls [][]string
	k := &KeychainStore{service: keychainService, run: func(name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		return []byte("masterkey\n"), nil
	}}

	v, err := k.Get("prod")
	require.NoError(t, err)
	assert.Equal(t, "masterkey", string(v))
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"security", "find-generic-password", "-a", "prod", "-s", "tap-firebird", "-w"}, calls[0])
}

func TestKeychainGetFailure(t *testing.T) {
	k := &KeychainStore{service: keychainService, run: func(string, ...string) ([]byte, error) {
		return nil, errors.New("security: not installed")
	}}

	_, err := k.Get("prod")
	assert.ErrorContains(t, err, "not installed")
}
