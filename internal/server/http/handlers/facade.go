package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/archstore/internal/domain/model"
)

// CatalogFacade describes product operations exposed via HTTP.
type CatalogFacade interface {
	Products(ctx context.Context, category string) ([]model.Product, error)
	Product(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, name, description string, price decimal.Decimal, category, image, fileURL string) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, customerEmail, customerName string, items []model.OrderItem) (*model.Order, error)
	Order(ctx context.Context, id string) (*model.Order, error)
	Orders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, paymentIntentID *string) (*model.Order, error)
}

// PaymentFacade provides payment related operations.
type PaymentFacade interface {
	InitiatePayment(ctx context.Context, orderID string) (*model.PaymentIntent, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	PaymentStatus(ctx context.Context, paymentIntentID string) (*model.PaymentIntent, error)
}

// DownloadFacade authorizes file downloads.
type DownloadFacade interface {
	AuthorizeDownload(ctx context.Context, orderID, productID string) (*model.DownloadGrant, error)
}

// HealthFacade reports readiness of backing services.
type HealthFacade interface {
	Ping(ctx context.Context) error
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	CatalogFacade
	OrderFacade
	PaymentFacade
	DownloadFacade
	HealthFacade
}
