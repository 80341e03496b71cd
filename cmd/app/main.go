package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avoronova/flatbook/config"
	"github.com/avoronova/flatbook/internal/bootstrap"
	"github.com/avoronova/flatbook/internal/cache"
	"github.com/avoronova/flatbook/internal/kafka"
	"github.com/avoronova/flatbook/internal/observability"
	"github.com/avoronova/flatbook/internal/repository"
	"github.com/avoronova/flatbook/internal/scheduling"
	"github.com/avoronova/flatbook/internal/service/apartments"
	"github.com/avoronova/flatbook/internal/service/audit"
	"github.com/avoronova/flatbook/internal/service/auth"
	"github.com/avoronova/flatbook/internal/service/backup"
	"github.com/avoronova/flatbook/internal/service/bookings"
	"github.com/avoronova/flatbook/internal/service/scheduler"
	"github.com/jackc/pgx/v5/pgxpool"
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

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Cache.ApartmentsTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	auditPublisher := kafka.NewRetryPublisher(producer, cfg.Kafka.PublishRetries, 500*time.Millisecond)

	apartmentRepo := repository.NewApartmentRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	backupRepo := repository.NewBackupRepository(pool)

	authService := auth.NewService(userRepo, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	apartmentService := apartments.NewService(apartmentRepo, redisCache, auditPublisher, cfg.Kafka.AuditTopic, logger)
	bookingService := bookings.NewService(
		bookingRepo,
		apartmentRepo,
		redisCache,
		auditPublisher,
		cfg.Kafka.AuditTopic,
		time.Duration(cfg.Cache.AssignLockTTLSeconds)*time.Second,
		logger,
	)
	schedulerService := scheduler.NewService(
		apartmentRepo,
		bookingRepo,
		redisCache,
		auditPublisher,
		cfg.Kafka.AuditTopic,
		time.Duration(cfg.Cache.AssignLockTTLSeconds)*time.Second,
		weightsFromConfig(cfg.Scheduling),
		logger,
	)
	backupService := backup.NewService(apartmentRepo, bookingRepo, backupRepo, redisCache, auditPublisher, cfg.Kafka.AuditTopic, logger)
	auditService := audit.NewService(auditRepo, logger)

	services := bootstrap.Services{
		Auth:       authService,
		Apartments: apartmentService,
		Bookings:   bookingService,
		Scheduler:  schedulerService,
		Backup:     backupService,
		Audit:      auditService,
	}

	if err := bootstrap.Run(ctx, cfg, services, logger); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// weightsFromConfig overlays configured weights on the defaults. Zero means
// "not set" and keeps the default.
func weightsFromConfig(cfg config.SchedulingConfig) scheduling.Weights {
	w := scheduling.DefaultWeights
	if cfg.FavoriteBonus != 0 {
		w.FavoriteBonus = cfg.FavoriteBonus
	}
	if cfg.SundayPenalty != 0 {
		w.SundayPenalty = cfg.SundayPenalty
	}
	if cfg.SaturdayStartPenalty != 0 {
		w.SaturdayStartPenalty = cfg.SaturdayStartPenalty
	}
	return w
}
