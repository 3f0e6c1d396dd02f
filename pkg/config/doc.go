// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	TENANCY_HOST="0.0.0.0"
//	TENANCY_PORT="8080"
//	TENANCY_HEALTH_PORT="9090"
//	TENANCY_READ_TIMEOUT="15s"
//	TENANCY_WRITE_TIMEOUT="15s"
//
// Storage settings:
//
//	TENANCY_MONGO_URL="mongodb://localhost:27017"
//	TENANCY_MONGO_DATABASE="tenancy"
//	TENANCY_MONGO_TIMEOUT="10s"
//
// Queue and cache settings:
//
//	TENANCY_REDIS_ADDR="localhost:6379"
//	TENANCY_QUEUE_STREAM="tenancy:cleanup"
//	TENANCY_QUEUE_GROUP="cleanup-workers"
//	TENANCY_QUEUE_VISIBILITY_TIMEOUT="5m"
//	TENANCY_QUEUE_WORKERS="4"
//	TENANCY_CACHE_RELOAD_CHANNEL="tenancy:cache:reload"
//
// Events and identity settings:
//
//	TENANCY_NATS_URL="nats://localhost:4222"
//	TENANCY_NATS_SUBJECT_PREFIX="tenancy.events"
//	TENANCY_KEYCLOAK_URL="http://localhost:8080"
//	TENANCY_KEYCLOAK_REALM="tenancy"
//	TENANCY_KEYCLOAK_CLIENT_ID="tenancy-service"
//	TENANCY_KEYCLOAK_CLIENT_SECRET="..."
//
// Observability settings:
//
//	TENANCY_LOG_LEVEL="info"  # debug, info, warn, error
//	TENANCY_METRICS_ENABLED="true"
//	TENANCY_NAMESPACE="tenancy"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Queue: %s\n", cfg.Queue.Stream)
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/queue: Uses queue configuration
//   - pkg/observability: Uses observability configuration
package config
