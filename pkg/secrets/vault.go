package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"animehome/backend/pkg/config"
	"animehome/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
)

var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrVaultDisabled  = errors.New("vault integration is disabled")
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

// VaultConfig locates the KV v2 entry that holds the service credentials.
// SecretsPath is the entry path under the "secret" mount.
type VaultConfig struct {
	Address     string
	Token       string
	Namespace   string
	Timeout     time.Duration
	MaxRetries  int
	SecretsPath string
	Enabled     bool
}

// VaultManager reads credentials from Vault and caches them for cacheTTL. When
// Vault is disabled, or the key is absent from the entry, it reads the environment.
type VaultManager struct {
	client   *vault.Client
	config   VaultConfig
	cache    map[string]string
	mu       sync.RWMutex
	log      *logger.Logger
	cacheTTL time.Duration
}

// ConfigFromApp maps the VAULT_* settings onto a VaultConfig.
func ConfigFromApp(cfg *config.Config) VaultConfig {
	return VaultConfig{
		Address:     cfg.Vault.Address,
		Token:       cfg.Vault.Token,
		Namespace:   os.Getenv("VAULT_NAMESPACE"),
		SecretsPath: cfg.Vault.SecretsPath,
		Enabled:     cfg.Vault.Enabled,
		Timeout:     10 * time.Second,
		MaxRetries:  3,
	}
}

func NewVaultManager(log *logger.Logger, config VaultConfig) (*VaultManager, error) {
	if !config.Enabled {
		return &VaultManager{
			config:   config,
			cache:    make(map[string]string),
			log:      log,
			cacheTTL: 5 * time.Minute,
		}, nil
	}

	if config.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if config.Token == "" {
		return nil, ErrNoVaultToken
	}
	if config.SecretsPath == "" {
		config.SecretsPath = "animehome"
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = config.Address
	vaultConfig.Timeout = config.Timeout
	vaultConfig.MaxRetries = config.MaxRetries

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(config.Token)
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	manager := &VaultManager{
		client:   client,
		config:   config,
		cache:    make(map[string]string),
		log:      log,
		cacheTTL: 5 * time.Minute,
	}

	go manager.cleanupCache()

	return manager, nil
}

// GetSecret returns the cached value, then the Vault entry field named key, then the
// environment variable derived from key (model_api_key becomes MODEL_API_KEY).
func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	cachedValue, found := m.cache[key]
	m.mu.RUnlock()

	if found {
		return cachedValue, nil
	}

	if !m.config.Enabled {
		return m.getFromEnvironment(key)
	}

	value, err := m.getFromVault(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			m.log.Warn("Secret not found in Vault, falling back to environment", "key", key)
			return m.getFromEnvironment(key)
		}
		return "", err
	}

	m.cacheSecret(key, value)

	return value, nil
}

// GetSecretWithDefault logs the lookup failure and returns defaultValue.
func (m *VaultManager) GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		m.log.Warn("Failed to get secret, using default value",
			"key", key,
			"error", err.Error(),
		)
		return defaultValue
	}
	return value
}

func (m *VaultManager) getFromVault(ctx context.Context, key string) (string, error) {
	path := m.config.SecretsPath

	secret, err := m.client.KVv2("secret").Get(ctx, path)
	if errors.Is(err, vault.ErrSecretNotFound) {
		return "", ErrSecretNotFound
	}
	if err != nil {
		m.log.Error("Failed to read secret from Vault",
			"path", path,
			"error", err.Error(),
		)
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	value, ok := secret.Data[key].(string)
	if !ok {
		return "", ErrSecretNotFound
	}

	return value, nil
}

func (m *VaultManager) getFromEnvironment(key string) (string, error) {
	envKey := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))

	value := os.Getenv(envKey)
	if value == "" {
		return "", ErrSecretNotFound
	}

	m.cacheSecret(key, value)

	return value, nil
}

func (m *VaultManager) cacheSecret(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
}

// cleanupCache drops every cached value each cacheTTL so rotated keys are picked up.
func (m *VaultManager) cleanupCache() {
	ticker := time.NewTicker(m.cacheTTL)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		m.cache = make(map[string]string)
		m.mu.Unlock()

		m.log.Debug("Secret cache cleared")
	}
}
