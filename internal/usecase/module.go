package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/archstore/internal/adapter/eventcache"
	"github.com/polkiloo/archstore/internal/adapter/mailer"
	"github.com/polkiloo/archstore/internal/adapter/objectstore"
	"github.com/polkiloo/archstore/internal/adapter/payment"
	"github.com/polkiloo/archstore/internal/config"
	"github.com/polkiloo/archstore/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewOrderUseCase,
	NewProductUseCase,
	newPaymentUseCase,
	newDownloadUseCase,
)

type paymentParams struct {
	fx.In

	Orders   repository.OrderRepository
	Gateway  payment.Gateway
	Notifier mailer.Notifier
	Events   eventcache.Cache
	Config   *config.Config
	Logger   *slog.Logger
}

func newPaymentUseCase(p paymentParams) *PaymentUseCase {
	return NewPaymentUseCase(p.Orders, p.Gateway, p.Notifier, p.Events, p.Config.MaxPaymentAttempts, p.Logger)
}

func newDownloadUseCase(orders repository.OrderRepository, presigner objectstore.Presigner, cfg *config.Config) *DownloadUseCase {
	return NewDownloadUseCase(orders, presigner, DownloadOptions{
		KeyPrefix: cfg.DownloadKeyPrefix,
		KeyExt:    cfg.DownloadKeyExt,
		Expiry:    cfg.DownloadURLExpiry,
	})
}
