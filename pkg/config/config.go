package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port      string
		Env       string
		Timeout   time.Duration
		BaseURL   string
		StaticDir string
	}

	// Database configuration
	Database struct {
		Driver   string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		Path     string
		MaxConns int
		Timeout  time.Duration
	}

	// Upstream chat-completion provider
	Model struct {
		BaseURL     string
		APIKey      string
		Name        string
		Temperature float32
	}

	// Chat relay settings
	Relay struct {
		PersistTimeout    time.Duration
		TranscriptTTL     time.Duration
		TranscriptTimeout time.Duration
	}

	// Redis holds the transcript store connection. An empty URL keeps transcripts in memory.
	Redis struct {
		URL      string
		Password string
		DB       int
	}

	// Security configuration
	Security struct {
		AllowedOrigins []string
		MaxBodySize    int64
	}

	// Image proxy configuration
	ImageProxy struct {
		Timeout  time.Duration
		MaxBytes int64
	}

	// Vault configuration
	Vault struct {
		Enabled     bool
		Address     string
		Token       string
		SecretsPath string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	Tracing struct {
		Enabled     bool
		ServiceName string
	}

	OpenAPI struct {
		SchemaPath string
	}
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:3001",
	"http://localhost:8000",
	"http://127.0.0.1:8000",
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Load reads a fresh Config from the current environment without touching the singleton.
func Load() *Config {
	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvString("PORT", "8000")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
	cfg.Server.BaseURL = strings.TrimRight(getEnvString("BASE_URL", "http://localhost:"+cfg.Server.Port), "/")
	cfg.Server.StaticDir = getEnvString("STATIC_DIR", "static")

	// Database config
	cfg.Database.Driver = getEnvString("DB_DRIVER", "postgres")
	cfg.Database.Host = getEnvString("DB_HOST", "localhost")
	cfg.Database.Port = getEnvString("DB_PORT", "5432")
	cfg.Database.User = getEnvString("DB_USER", "postgres")
	cfg.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnvString("DB_NAME", "animehome")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	cfg.Database.Path = getEnvString("DB_PATH", "animehome.db")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

	// Model config
	cfg.Model.BaseURL = getEnvString("MODEL_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	cfg.Model.APIKey = getEnvString("MODEL_API_KEY", "")
	cfg.Model.Name = getEnvString("MODEL_NAME", "qwen-max")
	cfg.Model.Temperature = float32(getEnvFloat("MODEL_TEMPERATURE", 0.7))

	// Relay config
	cfg.Relay.PersistTimeout = getEnvDuration("RELAY_PERSIST_TIMEOUT", 10*time.Second)
	cfg.Relay.TranscriptTTL = getEnvDuration("TRANSCRIPT_TTL", 10*time.Minute)
	cfg.Relay.TranscriptTimeout = getEnvDuration("TRANSCRIPT_TIMEOUT", 2*time.Second)

	// Redis config
	cfg.Redis.URL = getEnvString("REDIS_URL", "")
	cfg.Redis.Password = getEnvString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// Security config
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", defaultOrigins)
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 10<<20) // 10MB

	// Image proxy config
	cfg.ImageProxy.Timeout = getEnvDuration("IMAGE_PROXY_TIMEOUT", 10*time.Second)
	cfg.ImageProxy.MaxBytes = getEnvInt64("IMAGE_PROXY_MAX_BYTES", 20<<20)

	// Vault config
	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.SecretsPath = getEnvString("VAULT_SECRETS_PATH", "animehome")

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Tracing.ServiceName = getEnvString("SERVICE_NAME", "animehome-api")

	cfg.OpenAPI.SchemaPath = getEnvString("OPENAPI_SCHEMA_PATH", "api/openapi.yaml")

	return cfg
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
