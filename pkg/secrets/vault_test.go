package secrets

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"animehome/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledManagerReadsEnvironment(t *testing.T) {
	t.Setenv("MODEL_API_KEY", "sk-env")

	m, err := NewVaultManager(logger.Discard(), VaultConfig{Enabled: false})
	require.NoError(t, err)

	v, err := m.GetSecret(context.Background(), "model_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", v)

	assert.Equal(t, "fallback", m.GetSecretWithDefault(context.Background(), "missing-key", "fallback"))
}

func TestEnabledManagerRequiresAddressAndToken(t *testing.T) {
	_, err := NewVaultManager(logger.Discard(), VaultConfig{Enabled: true, Token: "t"})
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultManager(logger.Discard(), VaultConfig{Enabled: true, Address: "http://vault"})
	assert.ErrorIs(t, err, ErrNoVaultToken)
}

func TestEnabledManagerReadsKV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
		if r.URL.Path != "/v1/secret/data/animehome" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"data":{"model_api_key":"sk-vault"},"metadata":{"version":1,"created_time":"2024-01-01T00:00:00Z","deletion_time":"","destroyed":false}}}`)
	}))
	defer srv.Close()

	m, err := NewVaultManager(logger.Discard(), VaultConfig{
		Enabled:     true,
		Address:     srv.URL,
		Token:       "root-token",
		SecretsPath: "animehome",
		Timeout:     time.Second,
	})
	require.NoError(t, err)

	v, err := m.GetSecret(context.Background(), "model_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-vault", v)

	// Keys missing from the entry fall back to the environment.
	t.Setenv("OTHER_KEY", "from-env")
	v, err = m.GetSecret(context.Background(), "other_key")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}

func TestPackageDefaultWithoutManager(t *testing.T) {
	SetManager(nil)
	_, err := GetSecret(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrManagerNotInitialized)
	assert.Equal(t, "d", GetSecretWithDefault(context.Background(), "anything", "d"))
}
