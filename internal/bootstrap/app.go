package bootstrap

import (
	"context"
	"time"

	"github.com/aegisguard/aegis/config"
	"github.com/aegisguard/aegis/internal/broadcast"
	"github.com/aegisguard/aegis/internal/cache"
	"github.com/aegisguard/aegis/internal/kafka"
	"github.com/aegisguard/aegis/internal/locator"
	"github.com/aegisguard/aegis/internal/payment"
	"github.com/aegisguard/aegis/internal/repository"
	"github.com/aegisguard/aegis/internal/service/dispatch"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App wires the dispatch core to its infrastructure adapters. Both
// binaries build the same graph; the API layer that would sit on top is
// outside this repository.
type App struct {
	Pool        *pgxpool.Pool
	Cache       *cache.RedisCache
	Broadcaster *broadcast.RedisBroadcaster
	Producer    *kafka.Producer
	Bookings    repository.BookingRepository
	Engine      *dispatch.Engine
}

func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	redisCache := cache.NewRedisCache(cfg.Redis)
	broadcaster := broadcast.NewRedisBroadcaster(cfg.Redis, logger)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)

	bookingRepo := repository.NewBookingRepository(pool)
	guardRepo := repository.NewGuardRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	locationRepo := repository.NewLocationRepository(pool)

	guardLocator := locator.NewService(redisCache, guardRepo, locator.Policy{
		SearchRadiusKm:  cfg.Dispatch.SearchRadiusKm,
		MaxCandidates:   cfg.Dispatch.MaxCandidates,
		AverageSpeedKmh: cfg.Dispatch.AverageSpeedKmh,
	})

	coordinator := payment.NewCoordinator(
		payment.NewSandboxGateway(),
		paymentRepo,
		time.Duration(cfg.Payment.GatewayTimeoutSeconds)*time.Second,
		cfg.Payment.PlatformFeePercent,
		logger,
	)

	engine := dispatch.NewEngine(
		bookingRepo,
		guardRepo,
		locationRepo,
		guardLocator,
		coordinator,
		broadcaster,
		producer,
		cfg.Kafka.EventsTopic,
		dispatch.Policy{
			MatchWait:     cfg.Dispatch.MatchWait(),
			AcceptWait:    cfg.Dispatch.AcceptWait(),
			StartWait:     cfg.Dispatch.StartWait(),
			StartGrace:    cfg.Dispatch.StartGrace(),
			AcceptLockTTL: time.Duration(cfg.Dispatch.AcceptLockTTLSeconds) * time.Second,
		},
		logger,
		dispatch.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		dispatch.WithGeoWriter(redisCache),
		dispatch.WithAcceptLocker(redisCache),
	)

	return &App{
		Pool:        pool,
		Cache:       redisCache,
		Broadcaster: broadcaster,
		Producer:    producer,
		Bookings:    bookingRepo,
		Engine:      engine,
	}, nil
}

func (a *App) Close() {
	if a.Producer != nil {
		_ = a.Producer.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
