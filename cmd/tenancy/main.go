package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/platinummonkey/tenancy/pkg/api"
	"github.com/platinummonkey/tenancy/pkg/async"
	"github.com/platinummonkey/tenancy/pkg/cache"
	"github.com/platinummonkey/tenancy/pkg/cleanup"
	"github.com/platinummonkey/tenancy/pkg/config"
	"github.com/platinummonkey/tenancy/pkg/events"
	"github.com/platinummonkey/tenancy/pkg/keycloak"
	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/queue"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document store
	store, err := storage.NewMongoStore(ctx, cfg.Storage)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	logger.WithField("url", cfg.Storage.URL).Info("Connected to MongoDB")

	// Redis: cleanup queue and cache reload fan-out
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	taskQueue, err := queue.New(ctx, redisClient, cfg.Queue.Config)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize cleanup queue")
		os.Exit(1)
	}
	logger.WithField("stream", cfg.Queue.Stream).Info("Cleanup queue ready")

	// Event producer
	producer, err := events.NewNATSProducer(cfg.Events, func(err error) {
		logger.WithError(err).Warn("NATS connection problem")
	})
	if err != nil {
		logger.WithError(err).Error("Failed to connect to NATS")
		os.Exit(1)
	}

	// Identity store
	roleManager := keycloak.NewClient(cfg.Keycloak)

	// Read models and the cross-instance reload bus
	userCache := cache.NewUserCache(store)
	customerCache := cache.NewCustomerCache(store)
	bus := cache.NewReloadBus(redisClient, cfg.Redis.ReloadChannel)
	bus.Register(userCache)
	bus.Register(customerCache)
	if err := userCache.Reload(ctx); err != nil {
		logger.WithError(err).Error("Failed to hydrate user cache")
		os.Exit(1)
	}
	if err := customerCache.Reload(ctx); err != nil {
		logger.WithError(err).Error("Failed to hydrate customer cache")
		os.Exit(1)
	}
	async.SafeGo(ctx, 0, "cache reload listener", logger, func(ctx context.Context) error {
		return bus.Listen(ctx, func(err error) {
			logger.WithError(err).Warn("cache reload notice failed")
		})
	})

	// Metrics and health
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	health := observability.NewHealthChecker()
	health.AddCheck("mongodb", store.HealthCheck)
	health.AddCheck("redis", taskQueue.HealthCheck)
	health.AddOptionalCheck("nats", producer.HealthCheck)

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, health)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}
	go func() {
		logger.WithField("addr", healthServer.Addr).Info("Health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	// Cleanup workflow engine and its workers
	engine := cleanup.NewEngine(cleanup.Config{
		Store:     store,
		Roles:     roleManager,
		Users:     userCache,
		Reloader:  bus,
		Events:    producer,
		Namespace: cfg.Observability.Namespace,
		Logger:    logger,
		Metrics:   metrics,
	})
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		if err := cleanup.Run(ctx, taskQueue, engine, cfg.Queue.Workers); err != nil {
			logger.WithError(err).Error("Cleanup workers stopped with error")
		}
	}()
	logger.WithField("workers", cfg.Queue.Workers).Info("Cleanup workers started")

	// API server
	server := api.NewServer(api.Config{
		Store:    store,
		Queue:    taskQueue,
		Roles:    roleManager,
		Reloader: bus,
		Logger:   logger,
		Metrics:  metrics,
	})
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(shutdownCtx context.Context) error {
		// stop the workers and the reload listener, wait for in-flight
		// tasks to settle
		cancel()
		select {
		case <-workersDone:
			return nil
		case <-shutdownCtx.Done():
			return fmt.Errorf("cleanup workers did not stop in time")
		}
	})
	shutdown.RegisterShutdownFunc(healthServer.Shutdown)
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		producer.Close()
		return nil
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		return redisClient.Close()
	})
	shutdown.RegisterShutdownFunc(store.Close)

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("API server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("API server failed")
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
}
