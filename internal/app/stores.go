package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/config"
	"github.com/shestoi/railbook/internal/repository"
	"github.com/shestoi/railbook/internal/repository/memory"
	mongorepo "github.com/shestoi/railbook/internal/repository/mongo"
	"github.com/shestoi/railbook/internal/repository/postgres"
	redisrepo "github.com/shestoi/railbook/internal/repository/redis"
	platformhealth "github.com/shestoi/railbook/platform/health/http"
	platformshutdown "github.com/shestoi/railbook/platform/shutdown"
)

// stores groups every repository the service runs on.
type stores struct {
	trains        repository.TrainRepository
	bookings      repository.BookingRepository
	users         repository.UserRepository
	sessions      repository.SessionRepository
	notifications repository.NotificationRepository
	processed     repository.ProcessedStore
	checks        map[string]platformhealth.Check
}

func memoryStores() *stores {
	return &stores{
		trains:        memory.NewTrainRepository(),
		bookings:      memory.NewBookingRepository(),
		users:         memory.NewUserRepository(),
		sessions:      memory.NewSessionRepository(),
		notifications: memory.NewNotificationRepository(),
		processed:     memory.NewProcessedStore(),
		checks:        map[string]platformhealth.Check{},
	}
}

// persistentStores connects MongoDB, Postgres and Redis and registers their shutdown.
// Whatever was opened before a failure is closed again.
func persistentStores(ctx context.Context, cfg config.Config, logger *zap.Logger, shutdownMgr *platformshutdown.Manager) (*stores, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	logger.Info("connecting to MongoDB", zap.String("db", cfg.MongoDB))
	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := mongoClient.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("applying Postgres migrations")
	if err := postgres.Migrate(connectCtx, cfg.PostgresDSN); err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, err
	}
	pool, err := pgxpool.New(connectCtx, cfg.PostgresDSN)
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		_ = mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("connecting to Redis", zap.String("addr", cfg.RedisAddr))
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(connectCtx).Err(); err != nil {
		_ = redisClient.Close()
		pool.Close()
		_ = mongoClient.Disconnect(context.Background())
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	shutdownMgr.Add("mongo", platformshutdown.DisconnectMongo(mongoClient))
	shutdownMgr.Add("postgres_pool", platformshutdown.ClosePool(pool))
	shutdownMgr.Add("redis", platformshutdown.CloseCloser(redisClient))

	logger.Info("persistent stores ready")
	return &stores{
		trains:        mongorepo.NewTrainRepository(mongoClient, cfg.MongoDB),
		bookings:      mongorepo.NewBookingRepository(mongoClient, cfg.MongoDB),
		users:         postgres.NewUserRepository(pool),
		sessions:      redisrepo.NewSessionRepository(redisClient, logger),
		notifications: postgres.NewNotificationRepository(pool),
		processed:     redisrepo.NewProcessedStore(redisClient),
		checks: map[string]platformhealth.Check{
			"mongo":    func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) },
			"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	}, nil
}
