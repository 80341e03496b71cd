package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avoronova/flatbook/config"
	"github.com/avoronova/flatbook/internal/cache"
	"github.com/avoronova/flatbook/internal/kafka"
	"github.com/avoronova/flatbook/internal/observability"
	"github.com/avoronova/flatbook/internal/repository"
	"github.com/avoronova/flatbook/internal/scheduling"
	"github.com/avoronova/flatbook/internal/service/audit"
	"github.com/avoronova/flatbook/internal/service/scheduler"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	apartmentRepo := repository.NewApartmentRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	// The sweep takes the same per-apartment assignment lock the API does, so
	// a sweep commit never interleaves with a manual assignment.
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Cache.ApartmentsTTLSeconds)*time.Second)

	auditService := audit.NewService(auditRepo, logger)
	schedulerService := scheduler.NewService(
		apartmentRepo,
		bookingRepo,
		redisCache,
		nil,
		"",
		time.Duration(cfg.Cache.AssignLockTTLSeconds)*time.Second,
		scheduling.DefaultWeights,
		logger,
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.AuditTopic)
	defer consumer.Close()

	// Audit trail: drain the topic into the audit table. Malformed messages
	// are logged and skipped so one bad payload cannot wedge the consumer.
	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.AuditEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Warn().Err(err).Msg("decode audit event")
				return nil
			}
			return auditService.Record(ctx, event)
		}); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("audit consumer stopped")
		}
	}()

	sweep := time.Duration(cfg.Worker.AutoAssignSweepMinutes) * time.Minute
	if sweep <= 0 {
		sweep = 15 * time.Minute
	}
	ticker := time.NewTicker(sweep)
	defer ticker.Stop()

	logger.Info().Dur("interval", sweep).Msg("worker started")

	for {
		select {
		case <-ticker.C:
			result, err := schedulerService.AutoAssign(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("auto-assign sweep failed")
				continue
			}
			if result.AssignedCount() > 0 || result.FailedCount() > 0 {
				logger.Info().
					Int("assigned", result.AssignedCount()).
					Int("failed", result.FailedCount()).
					Msg("auto-assign sweep")
			}
		case <-ctx.Done():
			logger.Info().Msg("worker shutting down")
			return
		}
	}
}
