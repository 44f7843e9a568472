package auth

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/archstore/internal/config"
)

// Module provides the operator token verifier via fx.
var Module = fx.Provide(newTokenVerifier)

type verifierParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newTokenVerifier(p verifierParams) (TokenVerifier, error) {
	if p.Config.AdminTokenHash == "" {
		p.Logger.Warn("ADMIN_TOKEN_HASH not set, admin routes are unprotected")
		return OpenVerifier{}, nil
	}
	return NewBcryptVerifier(p.Config.AdminTokenHash)
}
