package storage

import (
	"context"
	"fmt"

	"cryptosim/internal/modules/config"
	"cryptosim/internal/modules/storage/service"
	"cryptosim/pkg/db"
	"cryptosim/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
)

func noopClose() error { return nil }

// Open выбирает драйвер по storage.driver. closeFn освобождает соединения.
func Open(ctx context.Context, cfg *config.Config) (store service.Store, closeFn func() error, err error) {
	profile := cfg.Simulator.Profile

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return service.NewMemory(), noopClose, nil

	case config.DriverFile:
		return service.NewFile(cfg.Storage.FilePath), noopClose, nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.Storage.DSN})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pool: %w", err)
		}
		m := db.NewPgTxManager(pool)
		pg := service.NewPostgres(m, profile)
		if err := pg.EnsureSchema(ctx); err != nil {
			m.Close()
			return nil, nil, err
		}
		return pg, func() error {
			m.Close()
			return nil
		}, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Storage.RedisAddr, err)
		}
		return service.NewRedis(client, profile), client.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func NewStore(lc fx.Lifecycle, cfg *config.Config) (service.Store, error) {
	store, closeFn, err := Open(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		return closeFn()
	}})
	return store, nil
}

func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(NewStore),
		fx.Invoke(func(cfg *config.Config) {
			logger.Info("storage driver: %s", cfg.Storage.Driver)
		}),
	)
}
