package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/archstore/internal/config"
	"github.com/polkiloo/archstore/internal/domain/repository"
)

// Module wires PostgreSQL storage and repository adapters.
var Module = fx.Options(
	fx.Provide(newStorage),
	fx.Provide(
		func(s *Storage) repository.Factory { return s },
		func(f repository.Factory) repository.OrderRepository { return f.Orders() },
		func(f repository.Factory) repository.ProductRepository { return f.Products() },
	),
	fx.Invoke(registerLifecycle),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

var migrateUp = MigrateUp

func newStorage(p storageParams) (*Storage, error) {
	if p.Config.AutoMigrate {
		if err := migrateUp(p.Ctx, p.Config.DatabaseURI); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		p.Logger.Info("database migrations applied")
	}
	return New(p.Ctx, p.Config.DatabaseURI, p.Config.UpstreamTimeout, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, storage *Storage) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			storage.Close()
			return nil
		},
	})
}
