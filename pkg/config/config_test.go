package config

import (
	"os"
	"testing"
	"time"

	"github.com/platinummonkey/tenancy/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{
			name:         "parses true",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "true",
			want:         true,
		},
		{
			name:         "parses 1 as true",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "1",
			want:         true,
		},
		{
			name:         "parses false",
			key:          "TEST_BOOL",
			defaultValue: true,
			envValue:     "false",
			want:         false,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_BOOL_NOT_SET",
			defaultValue: true,
			envValue:     "",
			want:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{
			name:         "parses duration",
			key:          "TEST_DURATION",
			defaultValue: time.Second,
			envValue:     "2m30s",
			want:         2*time.Minute + 30*time.Second,
		},
		{
			name:         "returns default for garbage",
			key:          "TEST_DURATION",
			defaultValue: time.Second,
			envValue:     "soon",
			want:         time.Second,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_DURATION_NOT_SET",
			defaultValue: 5 * time.Second,
			envValue:     "",
			want:         5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLoadConfigDefaults tests that LoadConfig applies defaults
func TestLoadConfigDefaults(t *testing.T) {
	os.Setenv("TENANCY_KEYCLOAK_CLIENT_SECRET", "test-secret")
	defer os.Unsetenv("TENANCY_KEYCLOAK_CLIENT_SECRET")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %v, want 8080", cfg.Server.Port)
	}
	if cfg.Server.HealthPort != "9090" {
		t.Errorf("Server.HealthPort = %v, want 9090", cfg.Server.HealthPort)
	}
	if cfg.Storage.Database != "tenancy" {
		t.Errorf("Storage.Database = %v, want tenancy", cfg.Storage.Database)
	}
	if cfg.Queue.Stream != "tenancy:cleanup" {
		t.Errorf("Queue.Stream = %v, want tenancy:cleanup", cfg.Queue.Stream)
	}
	if cfg.Queue.Workers != 4 {
		t.Errorf("Queue.Workers = %v, want 4", cfg.Queue.Workers)
	}
	if cfg.Observability.LogLevel != observability.InfoLevel {
		t.Errorf("Observability.LogLevel = %v, want info", cfg.Observability.LogLevel)
	}
	if cfg.Observability.Namespace != "tenancy" {
		t.Errorf("Observability.Namespace = %v, want tenancy", cfg.Observability.Namespace)
	}
}

// TestLoadConfigOverrides tests that environment variables override defaults
func TestLoadConfigOverrides(t *testing.T) {
	vars := map[string]string{
		"TENANCY_PORT":                     "3000",
		"TENANCY_MONGO_URL":                "mongodb://db:27017",
		"TENANCY_MONGO_DATABASE":           "hierarchy",
		"TENANCY_REDIS_ADDR":               "redis:6379",
		"TENANCY_QUEUE_STREAM":             "hierarchy:cleanup",
		"TENANCY_QUEUE_WORKERS":            "8",
		"TENANCY_NATS_URL":                 "nats://broker:4222",
		"TENANCY_KEYCLOAK_CLIENT_SECRET":   "test-secret",
		"TENANCY_LOG_LEVEL":                "debug",
		"TENANCY_QUEUE_VISIBILITY_TIMEOUT": "90s",
	}
	for k, v := range vars {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range vars {
			os.Unsetenv(k)
		}
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "3000" {
		t.Errorf("Server.Port = %v, want 3000", cfg.Server.Port)
	}
	if cfg.Storage.URL != "mongodb://db:27017" {
		t.Errorf("Storage.URL = %v, want mongodb://db:27017", cfg.Storage.URL)
	}
	if cfg.Storage.Database != "hierarchy" {
		t.Errorf("Storage.Database = %v, want hierarchy", cfg.Storage.Database)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis.Addr = %v, want redis:6379", cfg.Redis.Addr)
	}
	if cfg.Queue.Stream != "hierarchy:cleanup" {
		t.Errorf("Queue.Stream = %v, want hierarchy:cleanup", cfg.Queue.Stream)
	}
	if cfg.Queue.Workers != 8 {
		t.Errorf("Queue.Workers = %v, want 8", cfg.Queue.Workers)
	}
	if cfg.Queue.VisibilityTimeout != 90*time.Second {
		t.Errorf("Queue.VisibilityTimeout = %v, want 90s", cfg.Queue.VisibilityTimeout)
	}
	if cfg.Events.URL != "nats://broker:4222" {
		t.Errorf("Events.URL = %v, want nats://broker:4222", cfg.Events.URL)
	}
	if cfg.Observability.LogLevel != observability.DebugLevel {
		t.Errorf("Observability.LogLevel = %v, want debug", cfg.Observability.LogLevel)
	}
}

// TestValidateRejectsBadConfig tests configuration validation failures
func TestValidateRejectsBadConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:        loadServerConfig(),
			Storage:       loadStorageConfig(),
			Redis:         loadRedisConfig(),
			Queue:         loadQueueConfig(),
			Events:        loadEventsConfig(),
			Keycloak:      loadKeycloakConfig(),
			Observability: loadObservabilityConfig(),
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "missing server port",
			mutate: func(c *Config) { c.Server.Port = "" },
		},
		{
			name:   "port collision",
			mutate: func(c *Config) { c.Server.HealthPort = c.Server.Port },
		},
		{
			name:   "missing mongo URL",
			mutate: func(c *Config) { c.Storage.URL = "" },
		},
		{
			name:   "missing redis address",
			mutate: func(c *Config) { c.Redis.Addr = "" },
		},
		{
			name:   "missing queue group",
			mutate: func(c *Config) { c.Queue.Group = "" },
		},
		{
			name:   "zero visibility timeout",
			mutate: func(c *Config) { c.Queue.VisibilityTimeout = 0 },
		},
		{
			name:   "zero workers",
			mutate: func(c *Config) { c.Queue.Workers = 0 },
		},
		{
			name:   "missing NATS URL",
			mutate: func(c *Config) { c.Events.URL = "" },
		},
		{
			name:   "missing keycloak secret",
			mutate: func(c *Config) { c.Keycloak.ClientSecret = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			cfg.Keycloak.ClientSecret = "test-secret"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
