// Package bootstrap opens the runtime dependencies selected by configuration:
// the user and post stores, Redis, and optional demo data.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"quill/internal/auth"
	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/observability"
	"quill/internal/repository"
	"quill/internal/seed"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemo bool
}

// Runtime holds the stores and clients a server runs on.
type Runtime struct {
	Users repository.UserRepository
	Posts repository.PostRepository
	Redis *redis.Client

	driver string
	db     *gorm.DB
	mongo  *mongo.Client
}

// InitRuntime connects to the configured store and Redis and optionally
// seeds the demo data.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	var (
		rt  *Runtime
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverMongo:
		rt, err = openMongo(ctx, cfg)
	case config.DriverPostgres, config.DriverSQLite:
		var db *gorm.DB
		db, err = database.Connect(cfg)
		if err == nil {
			rt = NewGormRuntime(db, nil)
			rt.driver = cfg.StoreDriver
		}
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("store connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	rt.Redis = cache.Connect(cfg.RedisURL)

	if opts.SeedDemo {
		seeder := seed.NewSeeder(rt.Users, rt.Posts, auth.NewBcryptHasher(cfg.BcryptCost))
		if _, err := seeder.Demo(ctx); err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return rt, nil
}

func openMongo(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	client, db, err := database.ConnectMongo(ctx, cfg.MongoURL, cfg.DatabaseName)
	if err != nil {
		return nil, err
	}
	if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Runtime{
		Users:  repository.NewMongoUserRepository(db),
		Posts:  repository.NewMongoPostRepository(db),
		driver: config.DriverMongo,
		mongo:  client,
	}, nil
}

// NewGormRuntime wraps an already-open GORM database. redisClient may be nil.
func NewGormRuntime(db *gorm.DB, redisClient *redis.Client) *Runtime {
	return &Runtime{
		Users:  repository.NewUserRepository(db),
		Posts:  repository.NewPostRepository(db),
		Redis:  redisClient,
		driver: db.Dialector.Name(),
		db:     db,
	}
}

// Driver names the active store.
func (r *Runtime) Driver() string {
	return r.driver
}

// PingStore checks that the store is reachable.
func (r *Runtime) PingStore(ctx context.Context) error {
	switch {
	case r.db != nil:
		sqlDB, err := r.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	case r.mongo != nil:
		return r.mongo.Ping(ctx, readpref.Primary())
	default:
		return errors.New("no store configured")
	}
}

// Close releases every connection the runtime holds.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if r.db != nil {
		if err := database.Close(r.db); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if r.mongo != nil {
		if err := r.mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongodb: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	observability.Logger.InfoContext(ctx, "runtime closed", slog.String("driver", r.driver))
	return nil
}
