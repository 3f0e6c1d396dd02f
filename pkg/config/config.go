package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/tenancy/pkg/cache"
	"github.com/platinummonkey/tenancy/pkg/events"
	"github.com/platinummonkey/tenancy/pkg/keycloak"
	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/queue"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Redis configuration (cleanup queue and cache reload fan-out)
	Redis RedisConfig

	// Queue configuration
	Queue QueueConfig

	// Events configuration
	Events events.Config

	// Keycloak configuration
	Keycloak keycloak.Config

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// RedisConfig holds the shared Redis connection settings
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ReloadChannel string
}

// QueueConfig holds the cleanup queue settings plus the worker count
type QueueConfig struct {
	queue.Config
	Workers int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// Event namespace used in deletion announcements
	Namespace string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Redis:         loadRedisConfig(),
		Queue:         loadQueueConfig(),
		Events:        loadEventsConfig(),
		Keycloak:      loadKeycloakConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("TENANCY_HOST", "0.0.0.0"),
		Port:            getEnv("TENANCY_PORT", "8080"),
		ReadTimeout:     getEnvDuration("TENANCY_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("TENANCY_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("TENANCY_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("TENANCY_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("TENANCY_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads document store configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if url := getEnv("TENANCY_MONGO_URL", ""); url != "" {
		cfg.URL = url
	}
	if database := getEnv("TENANCY_MONGO_DATABASE", ""); database != "" {
		cfg.Database = database
	}
	if timeout := getEnvDuration("TENANCY_MONGO_TIMEOUT", 0); timeout > 0 {
		cfg.Timeout = timeout
	}

	return cfg
}

// loadRedisConfig loads Redis connection configuration from environment
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:          getEnv("TENANCY_REDIS_ADDR", "localhost:6379"),
		Password:      getEnv("TENANCY_REDIS_PASSWORD", ""),
		DB:            getEnvInt("TENANCY_REDIS_DB", 0),
		ReloadChannel: getEnv("TENANCY_CACHE_RELOAD_CHANNEL", cache.DefaultReloadChannel),
	}
}

// loadQueueConfig loads cleanup queue configuration from environment
func loadQueueConfig() QueueConfig {
	cfg := queue.DefaultConfig()

	if stream := getEnv("TENANCY_QUEUE_STREAM", ""); stream != "" {
		cfg.Stream = stream
	}
	if group := getEnv("TENANCY_QUEUE_GROUP", ""); group != "" {
		cfg.Group = group
	}
	if consumer := getEnv("TENANCY_QUEUE_CONSUMER", ""); consumer != "" {
		cfg.Consumer = consumer
	}
	if visibility := getEnvDuration("TENANCY_QUEUE_VISIBILITY_TIMEOUT", 0); visibility > 0 {
		cfg.VisibilityTimeout = visibility
	}
	if block := getEnvDuration("TENANCY_QUEUE_BLOCK", 0); block > 0 {
		cfg.Block = block
	}

	return QueueConfig{
		Config:  cfg,
		Workers: getEnvInt("TENANCY_QUEUE_WORKERS", 4),
	}
}

// loadEventsConfig loads NATS event configuration from environment
func loadEventsConfig() events.Config {
	cfg := events.DefaultConfig()

	if url := getEnv("TENANCY_NATS_URL", ""); url != "" {
		cfg.URL = url
	}
	if prefix := getEnv("TENANCY_NATS_SUBJECT_PREFIX", ""); prefix != "" {
		cfg.SubjectPrefix = prefix
	}
	if wait := getEnvDuration("TENANCY_NATS_RECONNECT_WAIT", 0); wait > 0 {
		cfg.ReconnectWait = wait
	}
	if retries := getEnvInt("TENANCY_NATS_MAX_RECONNECTS", 0); retries != 0 {
		cfg.MaxReconnects = retries
	}

	return cfg
}

// loadKeycloakConfig loads identity-provider configuration from environment
func loadKeycloakConfig() keycloak.Config {
	cfg := keycloak.DefaultConfig()

	if baseURL := getEnv("TENANCY_KEYCLOAK_URL", ""); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if realm := getEnv("TENANCY_KEYCLOAK_REALM", ""); realm != "" {
		cfg.Realm = realm
	}
	if clientID := getEnv("TENANCY_KEYCLOAK_CLIENT_ID", ""); clientID != "" {
		cfg.ClientID = clientID
	}
	cfg.ClientSecret = getEnv("TENANCY_KEYCLOAK_CLIENT_SECRET", "")
	if timeout := getEnvDuration("TENANCY_KEYCLOAK_TIMEOUT", 0); timeout > 0 {
		cfg.Timeout = timeout
	}

	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("TENANCY_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("TENANCY_METRICS_ENABLED", true),
		Namespace:      getEnv("TENANCY_NAMESPACE", "tenancy"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate storage config
	if c.Storage.URL == "" {
		return fmt.Errorf("mongo URL is required")
	}
	if c.Storage.Database == "" {
		return fmt.Errorf("mongo database is required")
	}

	// Validate redis config
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.Redis.ReloadChannel == "" {
		return fmt.Errorf("cache reload channel is required")
	}

	// Validate queue config
	if c.Queue.Stream == "" || c.Queue.Group == "" || c.Queue.Consumer == "" {
		return fmt.Errorf("queue stream, group and consumer are required")
	}
	if c.Queue.VisibilityTimeout <= 0 {
		return fmt.Errorf("queue visibility timeout must be positive")
	}
	if c.Queue.Workers < 1 {
		return fmt.Errorf("queue worker count must be at least 1")
	}

	// Validate events config
	if c.Events.URL == "" {
		return fmt.Errorf("NATS URL is required")
	}
	if c.Events.SubjectPrefix == "" {
		return fmt.Errorf("NATS subject prefix is required")
	}

	// Validate keycloak config
	if c.Keycloak.BaseURL == "" || c.Keycloak.Realm == "" {
		return fmt.Errorf("keycloak URL and realm are required")
	}
	if c.Keycloak.ClientID == "" || c.Keycloak.ClientSecret == "" {
		return fmt.Errorf("keycloak client credentials are required")
	}

	if c.Observability.Namespace == "" {
		return fmt.Errorf("event namespace is required")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
