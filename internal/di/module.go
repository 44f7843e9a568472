package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/archstore/internal/adapter/eventcache"
	"github.com/polkiloo/archstore/internal/adapter/mailer"
	"github.com/polkiloo/archstore/internal/adapter/objectstore"
	"github.com/polkiloo/archstore/internal/adapter/payment"
	"github.com/polkiloo/archstore/internal/app"
	"github.com/polkiloo/archstore/internal/config"
	"github.com/polkiloo/archstore/internal/logger"
	"github.com/polkiloo/archstore/internal/pkg/auth"
	"github.com/polkiloo/archstore/internal/server/http/router"
	"github.com/polkiloo/archstore/internal/storage/postgres"
	"github.com/polkiloo/archstore/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		payment.Module,
		objectstore.Module,
		mailer.Module,
		eventcache.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
