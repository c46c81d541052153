package lock

import (
	"context"
	"log/slog"

	"cleancity/config"
	"cleancity/internal/domain/lifecycle"
	"cleancity/internal/domain/service"
	"cleancity/internal/errors"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
)

// Params defines the dependencies of the locker provider
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New selects the locker from lock.driver.
func New(params Params) (service.AllotmentLocker, error) {
	cfg := params.Config.Lock

	switch cfg.Driver {
	case "", config.LockDriverMemory:
		params.Logger.Info("Using in-process allotment lock")

		return NewMemoryLocker(cfg.WaitTimeout), nil

	case config.LockDriverRedis:
		if params.Config.Redis == nil || params.Config.Redis.Addr == "" {
			return nil, errors.New("redis lock selected but redis.addr is not configured")
		}

		client := redis.NewClient(&redis.Options{
			Addr:     params.Config.Redis.Addr,
			Password: params.Config.Redis.Password,
			DB:       params.Config.Redis.DB,
		})

		params.Append(fx.Hook{
			OnStart: func(startCtx context.Context) error {
				ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
				defer cancel()

				if err := client.Ping(ctx).Err(); err != nil {
					return errors.Wrap(err, "failed to ping redis")
				}

				return nil
			},
			OnStop: func(_ context.Context) error {
				return client.Close()
			},
		})

		params.Logger.Info("Using redis allotment lock", slog.String("addr", params.Config.Redis.Addr))

		return NewRedisLocker(client, cfg.KeyPrefix, cfg.TTL, cfg.WaitTimeout), nil

	default:
		return nil, errors.Errorf("unknown lock driver: %s", cfg.Driver)
	}
}
