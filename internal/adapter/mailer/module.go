package mailer

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/archstore/internal/config"
)

// Module provides the order confirmation notifier.
var Module = fx.Provide(newNotifier)

type notifierParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newNotifier(p notifierParams) (Notifier, error) {
	if !p.Config.EmailEnabled() {
		return NewLogNotifier(p.Config.FrontendURL, p.Logger), nil
	}
	return NewSMTPNotifier(Options{
		Host:        p.Config.EmailHost,
		Port:        p.Config.EmailPort,
		Username:    p.Config.EmailUser,
		Password:    p.Config.EmailPassword,
		From:        p.Config.EmailFrom,
		FrontendURL: p.Config.FrontendURL,
		Timeout:     p.Config.UpstreamTimeout,
	}, p.Logger)
}
