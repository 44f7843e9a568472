package eventcache

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/archstore/internal/config"
)

// Module provides the webhook event cache.
var Module = fx.Provide(newCache)

type cacheParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newCache(p cacheParams) Cache {
	if p.Config.RedisAddress == "" {
		p.Logger.Info("redis not configured, webhook event cache disabled")
		return Noop{}
	}

	cache := NewRedisCache(p.Config.RedisAddress, p.Config.RedisPassword, p.Config.RedisDB, p.Config.WebhookEventTTL)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := cache.Ping(ctx); err != nil {
				p.Logger.Warn("redis unreachable, duplicate webhooks fall back to database guards", slog.Any("error", err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return cache.Close()
		},
	})
	return cache
}
