// Package secrets resolves credentials such as the model provider API key. Values
// come from one Vault KV v2 entry when Vault is enabled, otherwise from the environment.
package secrets

import (
	"context"
	"sync"

	"animehome/backend/pkg/logger"
)

// Manager looks up credentials by key, for example "model_api_key".
type Manager interface {
	GetSecret(ctx context.Context, key string) (string, error)

	// GetSecretWithDefault returns defaultValue when the key cannot be resolved.
	GetSecretWithDefault(ctx context.Context, key, defaultValue string) string
}

var (
	defaultManager Manager
	managerOnce    sync.Once
)

// Init installs the process-wide manager. Only the first call has any effect.
func Init(log *logger.Logger, config VaultConfig) error {
	var err error
	managerOnce.Do(func() {
		manager, initErr := NewVaultManager(log, config)
		if initErr != nil {
			err = initErr
			return
		}
		defaultManager = manager
	})
	return err
}

// GetSecret resolves key through the process-wide manager.
func GetSecret(ctx context.Context, key string) (string, error) {
	if defaultManager == nil {
		return "", ErrManagerNotInitialized
	}
	return defaultManager.GetSecret(ctx, key)
}

// GetSecretWithDefault falls back to defaultValue before Init or on any lookup failure.
func GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	if defaultManager == nil {
		return defaultValue
	}
	return defaultManager.GetSecretWithDefault(ctx, key, defaultValue)
}

// SetManager replaces the process-wide manager.
func SetManager(manager Manager) {
	defaultManager = manager
}

var (
	ErrManagerNotInitialized = NewError("secrets manager not initialized")
)

// Error is a constant secrets error.
type Error string

func (e Error) Error() string {
	return string(e)
}

func NewError(text string) Error {
	return Error(text)
}
