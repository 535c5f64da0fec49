package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore map[string][]byte

func (m memStore) Set(key string, value []byte) error { m[key] = value; return nil }
func (m memStore) Get(key string) ([]byte, error)    { return m[key], nil }
func (m memStore) Delete(key string) error           { delete(m, key); return nil }

func TestResolveEnv(t *testing.T) {
	t.Setenv("TAP_FIREBIRD_TEST_PASSWORD", "masterkey")

	got, err := NewResolver().Resolve("env:TAP_FIREBIRD_TEST_PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, "masterkey", got)
}

func TestResolveErrors(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve("plain")
	assert.ErrorIs(t, err, ErrBadReference)

	_, err = r.Resolve("vault:db")
	assert.ErrorIs(t, err, ErrUnknownStore)

	_, err = r.Resolve("env:TAP_FIREBIRD_UNSET_VARIABLE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveRegisteredStore(t *testing.T) {
	r := NewResolver()
	store := memStore{}
	require.NoError(t, store.Set("warehouse", []byte("s3cret")))
	r.Register("keychain", store)

	got, err := r.Resolve("keychain:warehouse")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
}

func TestEnvStore(t *testing.T) {
	t.Setenv("TAP_FIREBIRD_ENV_STORE", "")
	s := NewEnvStore()

	require.NoError(t, s.Set("TAP_FIREBIRD_ENV_STORE", []byte("value")))
	v, err := s.Get("TAP_FIREBIRD_ENV_STORE")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	require.NoError(t, s.Delete("TAP_FIREBIRD_ENV_STORE"))
	v, err = s.Get("TAP_FIREBIRD_ENV_STORE")
	require.NoError(t, err)
	assert.Nil(t, v)
}
