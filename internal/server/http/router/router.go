package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	pkgAuth "github.com/polkiloo/archstore/internal/pkg/auth"
	"github.com/polkiloo/archstore/internal/server/http/dto"
	"github.com/polkiloo/archstore/internal/server/http/handlers"
	"github.com/polkiloo/archstore/internal/server/http/middleware"
)

// Options tunes the HTTP surface.
type Options struct {
	FrontendURL    string
	MaxRequestBody int64
}

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.StorefrontFacade, verifier pkgAuth.TokenVerifier, opts Options, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	binding.EnableDecoderDisallowUnknownFields = true

	engine := gin.New()
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", slog.Any("panic", recovered), slog.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "internal server error"})
	}))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(cors.New(corsConfig(opts.FrontendURL)))
	engine.Use(middleware.BodyLimit(opts.MaxRequestBody))
	engine.Use(middleware.DecompressRequest(opts.MaxRequestBody))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	productHandler := handlers.NewProductHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	paymentHandler := handlers.NewPaymentHandler(facade)
	downloadHandler := handlers.NewDownloadHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	admin := middleware.AdminRequired(verifier)

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Check)

	products := api.Group("/products")
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.POST("", admin, productHandler.Create)
	products.DELETE("/:id", admin, productHandler.Delete)

	orders := api.Group("/orders")
	orders.POST("", orderHandler.Create)
	orders.GET("/:id", orderHandler.Get)
	orders.GET("", admin, orderHandler.List)
	orders.PATCH("/:id/status", admin, orderHandler.UpdateStatus)

	payment := api.Group("/payment")
	payment.POST("/create-payment-intent", paymentHandler.CreateIntent)
	payment.POST("/webhook", paymentHandler.Webhook)
	payment.GET("/status/:paymentIntentId", paymentHandler.Status)

	api.POST("/downloads/generate", downloadHandler.Generate)

	return engine
}

func corsConfig(frontendURL string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if frontendURL == "" {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = []string{frontendURL}
	}
	return cfg
}
