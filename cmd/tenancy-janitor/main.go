package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/tenancy/pkg/cache"
	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/queue"
)

var (
	redisAddr     = flag.String("redis-addr", getEnv("TENANCY_REDIS_ADDR", "localhost:6379"), "Redis address")
	redisPassword = flag.String("redis-password", getEnv("TENANCY_REDIS_PASSWORD", ""), "Redis password")
	stream        = flag.String("stream", getEnv("TENANCY_QUEUE_STREAM", "tenancy:cleanup"), "Cleanup queue stream")
	group         = flag.String("group", getEnv("TENANCY_QUEUE_GROUP", "cleanup-workers"), "Cleanup queue consumer group")
	visibility    = flag.Duration("visibility", 5*time.Minute, "Pending entry age before reclamation")
	reloadChannel = flag.String("reload-channel", getEnv("TENANCY_CACHE_RELOAD_CHANNEL", cache.DefaultReloadChannel), "Cache reload pub/sub channel")
	schedule      = flag.String("schedule", "* * * * *", "Cron schedule for reclamation sweeps")
	metricsAddr   = flag.String("metrics-addr", ":9091", "Metrics listen address")
	runOnce       = flag.Bool("run-once", false, "Run one reclamation sweep and exit (for ops)")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	ctx := context.Background()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     *redisAddr,
		Password: *redisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("Failed to reach Redis")
	}

	taskQueue, err := queue.New(ctx, redisClient, queue.Config{
		Stream:            *stream,
		Group:             *group,
		Consumer:          "janitor-" + uuid.NewString(),
		VisibilityTimeout: *visibility,
		Block:             time.Second,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to open cleanup queue")
	}

	bus := cache.NewReloadBus(redisClient, *reloadChannel)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// Run once mode (for ops)
	if *runOnce {
		if err := sweep(ctx, taskQueue, bus, metrics, log); err != nil {
			log.WithError(err).Fatal("Reclamation sweep failed")
		}
		log.Info("Reclamation sweep completed")
		return
	}

	// Scheduled mode
	c := cron.New()
	_, err = c.AddFunc(*schedule, func() {
		if err := sweep(ctx, taskQueue, bus, metrics, log); err != nil {
			log.WithError(err).Error("Reclamation sweep failed")
		}
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to schedule reclamation sweeps")
	}

	metricsMux := http.NewServeMux()
	observability.RegisterMetricsEndpoint(metricsMux, registry)
	metricsServer := &http.Server{Addr: *metricsAddr, Handler: metricsMux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Metrics server failed")
		}
	}()

	c.Start()
	log.WithFields(logrus.Fields{
		"stream":   *stream,
		"group":    *group,
		"schedule": *schedule,
	}).Info("Tenancy janitor started")

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info("Shutting down gracefully...")

	cronCtx := c.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	_ = redisClient.Close()

	log.Info("Janitor stopped")
}

// sweep reclaims stale pending entries back onto the stream and records
// the queue depth. When anything was reclaimed, the service instances'
// read models may be behind the tasks that stalled, so a cache reload is
// broadcast as well.
func sweep(ctx context.Context, taskQueue *queue.Queue, bus *cache.ReloadBus, metrics *observability.Metrics, log *logrus.Logger) error {
	recovered, err := taskQueue.Reclaim(ctx)
	if err != nil {
		return err
	}
	if recovered > 0 {
		metrics.QueueReclaimedTotal.Add(float64(recovered))
		log.WithField("recovered", recovered).Info("Reclaimed stale cleanup tasks")

		if err := bus.Broadcast(ctx, cache.UserCacheName, cache.CustomerCacheName); err != nil {
			log.WithError(err).Warn("Failed to broadcast cache reload")
		}
	}

	pending, err := taskQueue.Pending(ctx)
	if err != nil {
		return err
	}
	metrics.QueuePendingEntries.Set(float64(pending))
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
