package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/archstore/internal/app"
	"github.com/polkiloo/archstore/internal/config"
	pkgAuth "github.com/polkiloo/archstore/internal/pkg/auth"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(newRouter)

type routerParams struct {
	fx.In

	Facade   *app.StorefrontFacade
	Verifier pkgAuth.TokenVerifier
	Config   *config.Config
	Logger   *slog.Logger
}

func newRouter(p routerParams) *gin.Engine {
	return Setup(p.Facade, p.Verifier, Options{
		FrontendURL:    p.Config.FrontendURL,
		MaxRequestBody: p.Config.MaxRequestBody,
	}, p.Logger)
}
