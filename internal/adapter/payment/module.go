package payment

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/archstore/internal/config"
)

// Module exposes the Stripe gateway to fx graph.
var Module = fx.Provide(newGateway)

type gatewayParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newGateway(p gatewayParams) (Gateway, error) {
	return NewStripeGateway(Options{
		SecretKey:     p.Config.StripeSecretKey,
		WebhookSecret: p.Config.StripeWebhookSecret,
		Currency:      p.Config.PaymentCurrency,
		Timeout:       p.Config.UpstreamTimeout,
	}, p.Logger)
}
