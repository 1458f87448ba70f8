package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tidewell-health/platform/pkg/common/config"
	"github.com/tidewell-health/platform/pkg/common/database"
	"github.com/tidewell-health/platform/pkg/common/kafka"
	"github.com/tidewell-health/platform/pkg/common/logger"
	"github.com/tidewell-health/platform/pkg/common/models"
	"github.com/tidewell-health/platform/pkg/merge"
	"github.com/tidewell-health/platform/pkg/observability/metrics"
	"github.com/tidewell-health/platform/pkg/patient"
)

func main() {
	logger.Init()
	metrics.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	if err := patient.AutoMigrate(db); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate patient tables")
	}

	rules, err := merge.LoadRules(cfg.MergeRulesPath)
	if err != nil {
		logger.Log.WithError(err).WithField("path", cfg.MergeRulesPath).Warn("falling back to default merge rules")
	}
	resolver := merge.NewResolver(rules.ExcludedColumns)
	registry := merge.NewRegistry(resolver, rules)

	maintainer := merge.NewMaintainer(db, registry, merge.NewQueueFlagger())
	if missing := maintainer.EntitiesMissingSpecificHandling(); len(missing) > 0 {
		logger.Log.WithField("entities", missing).Fatal("entity types missing remerge handling")
	}

	producer := kafka.NewProducer(cfg.MergeEventTopic)
	defer producer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A completed facility sync session may have just pushed records that
	// reference merged patients, so it triggers an early sweep instead of
	// waiting out the interval.
	trigger := make(chan string, 1)
	consumer := kafka.NewConsumer(cfg.SyncEventTopic, cfg.KafkaGroupID)
	defer consumer.Close()
	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, event models.Event) error {
			if event.Type != "sync.completed" {
				return nil
			}
			select {
			case trigger <- "sync-completed":
			default:
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Error("sync event consumer stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Log.WithFields(map[string]interface{}{
		"interval": cfg.RemergeInterval.String(),
		"jitter":   cfg.RemergeJitter.String(),
	}).Info("Remerge worker started")

	for {
		select {
		case <-quit:
			logger.Log.Info("Remerge worker stopped")
			return
		case <-time.After(withJitter(cfg.RemergeInterval, cfg.RemergeJitter)):
			runSweep(ctx, cfg, maintainer, producer, "schedule")
		case reason := <-trigger:
			runSweep(ctx, cfg, maintainer, producer, reason)
		}
	}
}

// withJitter spreads sweeps out so multiple deployments do not hammer the
// database in lockstep.
func withJitter(interval, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return interval
	}
	return interval + time.Duration(rand.Int63n(int64(jitter)))
}

func runSweep(ctx context.Context, cfg *config.Config, maintainer *merge.Maintainer, producer *kafka.Producer, reason string) {
	redisClient := database.GetRedis()
	locked, err := redisClient.SetNX(ctx, cfg.RemergeLockKey, "1", cfg.RemergeLockTTL).Result()
	if err != nil {
		logger.Log.WithError(err).Error("failed to acquire remerge lock")
		return
	}
	if !locked {
		logger.Log.WithField("reason", reason).Info("remerge sweep already in flight, skipping")
		return
	}
	defer redisClient.Del(ctx, cfg.RemergeLockKey)

	started := time.Now()
	counts, err := maintainer.RemergePendingRecords(ctx)
	if err != nil {
		metrics.ObserveRemergeSweep(0, true, 0)
		logger.Log.WithError(err).Error("remerge sweep failed, will retry on next interval")
		return
	}

	total := 0
	for _, count := range counts {
		total += count
	}
	metrics.ObserveRemergeSweep(total, false, time.Now().Unix())

	logger.Log.WithFields(map[string]interface{}{
		"reason":   reason,
		"records":  total,
		"duration": time.Since(started).Milliseconds(),
	}).Info("remerge sweep completed")

	if total > 0 {
		data := map[string]interface{}{"updates": counts, "reason": reason}
		if err := producer.PublishEvent(ctx, "remerge.completed", "remerge-worker", data); err != nil {
			logger.Log.WithError(err).Warn("failed to publish remerge event")
		}
	}
}
