package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"vehiclerental/internal/app/middleware"
	appoutbox "vehiclerental/internal/app/outbox"
	bookingsvc "vehiclerental/internal/app/services/booking"
	"vehiclerental/internal/app/uow"
	"vehiclerental/internal/infra/broker/kafka"
	"vehiclerental/internal/infra/config"
	mongostore "vehiclerental/internal/infra/db/mongo"
	"vehiclerental/internal/infra/db/postgres"
	"vehiclerental/internal/infra/db/sqlite"
	"vehiclerental/internal/infra/fixtures"
	"vehiclerental/internal/infra/lock"
	infraoutbox "vehiclerental/internal/infra/outbox"
	"vehiclerental/internal/infra/storage/memory"
	redisstore "vehiclerental/internal/infra/storage/redis"
)

// dependencies holds the infrastructure selected by configuration.
type dependencies struct {
	uow         uow.UoWFactory
	catalog     fixtures.Upserter
	locks       bookingsvc.Locker
	idempotency middleware.IdempotencyStore

	outbox      appoutbox.Outbox
	outboxStore appoutbox.Store
	wake        <-chan struct{}
	producer    infraoutbox.Producer

	probes  []func(ctx context.Context) error
	closers []func(ctx context.Context) error
}

func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}
	fail := func(err error) (*dependencies, error) {
		deps.close(logger)
		return nil, err
	}

	var mongoClient *mongostore.Client
	if cfg.StoreDriver == config.StoreMongo || cfg.IdempotencyDriver == config.IdempotencyMongo {
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return fail(fmt.Errorf("mongo: %w", err))
		}
		mongoClient = client
		deps.probes = append(deps.probes, client.Ping)
		deps.closers = append(deps.closers, client.Close)
	}

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		client, err := redisstore.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fail(fmt.Errorf("redis: %w", err))
		}
		redisClient = client
		deps.probes = append(deps.probes, func(ctx context.Context) error { return client.Ping(ctx).Err() })
		deps.closers = append(deps.closers, func(context.Context) error { return client.Close() })
	}

	// SQL and in-memory stores stage events in the in-memory outbox; Mongo
	// writes them in the booking transaction.
	memoryBox := memory.NewOutboxStore()
	deps.outbox, deps.outboxStore, deps.wake = memoryBox, memoryBox, memoryBox.Wake()

	switch cfg.StoreDriver {
	case config.StoreMemory:
		catalog := memory.NewCatalogRepository()
		deps.catalog = catalog
		deps.uow = memory.Factory{BookingRepo: memory.NewBookingRepository(), CatalogRepo: catalog, Outbox: memoryBox}
	case config.StoreMongo:
		bookings := mongostore.NewBookingRepository(mongoClient.DB)
		catalog := mongostore.NewCatalogRepository(mongoClient.DB)
		box := infraoutbox.NewStore(mongoClient.DB)
		deps.catalog = catalog
		deps.outbox, deps.outboxStore, deps.wake = box, box, nil
		deps.uow = mongostore.Factory{DB: mongoClient.DB, BookingRepo: bookings, CatalogRepo: catalog, Outbox: box}
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return fail(fmt.Errorf("postgres: %w", err))
		}
		deps.addSQL(db)
		if err := postgres.Migrate(ctx, db); err != nil {
			return fail(err)
		}
		deps.catalog = postgres.NewCatalogRepository(db)
		deps.uow = postgres.Factory{DB: db, Outbox: memoryBox}
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return fail(fmt.Errorf("sqlite: %w", err))
		}
		deps.addSQL(db)
		if err := sqlite.Migrate(ctx, db); err != nil {
			return fail(err)
		}
		deps.catalog = sqlite.NewCatalogRepository(db)
		deps.uow = sqlite.Factory{DB: db, Outbox: memoryBox}
	default:
		return fail(fmt.Errorf("unsupported store driver %q", cfg.StoreDriver))
	}

	switch cfg.LockDriver {
	case config.LockRedis:
		deps.locks = &redisstore.Locker{Client: redisClient, TTL: cfg.LockTTL, Logger: logger}
	default:
		deps.locks = lock.NewKeyedMutex()
	}

	switch cfg.IdempotencyDriver {
	case config.IdempotencyMongo:
		deps.idempotency = mongostore.NewIdempotencyStore(mongoClient.DB, cfg.IdempotencyTTL)
	case config.IdempotencyRedis:
		deps.idempotency = redisstore.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)
	default:
		deps.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return fail(fmt.Errorf("kafka producer: %w", err))
		}
		deps.producer = producer
		deps.closers = append(deps.closers, func(context.Context) error { return producer.Close() })
	} else {
		logger.Info("KAFKA_BROKERS not set, events are logged instead of published")
		deps.producer = infraoutbox.LogPublisher{Logger: logger}
	}
	return deps, nil
}

func (d *dependencies) addSQL(db *sql.DB) {
	d.probes = append(d.probes, db.PingContext)
	d.closers = append(d.closers, func(context.Context) error { return db.Close() })
}

func (d *dependencies) ready(ctx context.Context) error {
	var errs []error
	for _, probe := range d.probes {
		if err := probe(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *dependencies) close(logger *slog.Logger) {
	ctx := context.Background()
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			logger.Warn("shutdown: close failed", "error", err)
		}
	}
	d.closers = nil
}
