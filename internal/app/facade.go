package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/archstore/internal/domain/model"
	"github.com/polkiloo/archstore/internal/usecase"
)

// HealthChecker reports readiness of backing services.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StorefrontFacade exposes use cases to the HTTP layer and the reconciler.
type StorefrontFacade struct {
	orders    *usecase.OrderUseCase
	products  *usecase.ProductUseCase
	payments  *usecase.PaymentUseCase
	downloads *usecase.DownloadUseCase
	health    HealthChecker
}

func NewStorefrontFacade(
	orders *usecase.OrderUseCase,
	products *usecase.ProductUseCase,
	payments *usecase.PaymentUseCase,
	downloads *usecase.DownloadUseCase,
	health HealthChecker,
) *StorefrontFacade {
	return &StorefrontFacade{orders: orders, products: products, payments: payments, downloads: downloads, health: health}
}

func (f *StorefrontFacade) Products(ctx context.Context, category string) ([]model.Product, error) {
	return f.products.Products(ctx, category)
}

func (f *StorefrontFacade) Product(ctx context.Context, id string) (*model.Product, error) {
	return f.products.Product(ctx, id)
}

func (f *StorefrontFacade) CreateProduct(ctx context.Context, name, description string, price decimal.Decimal, category, image, fileURL string) (*model.Product, error) {
	return f.products.CreateProduct(ctx, name, description, price, category, image, fileURL)
}

func (f *StorefrontFacade) DeleteProduct(ctx context.Context, id string) error {
	return f.products.DeleteProduct(ctx, id)
}

func (f *StorefrontFacade) CreateOrder(ctx context.Context, customerEmail, customerName string, items []model.OrderItem) (*model.Order, error) {
	return f.orders.CreateOrder(ctx, customerEmail, customerName, items)
}

func (f *StorefrontFacade) Order(ctx context.Context, id string) (*model.Order, error) {
	return f.orders.Order(ctx, id)
}

func (f *StorefrontFacade) Orders(ctx context.Context) ([]model.Order, error) {
	return f.orders.Orders(ctx)
}

func (f *StorefrontFacade) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, paymentIntentID *string) (*model.Order, error) {
	return f.orders.UpdateStatus(ctx, id, status, paymentIntentID)
}

func (f *StorefrontFacade) InitiatePayment(ctx context.Context, orderID string) (*model.PaymentIntent, error) {
	return f.payments.InitiatePayment(ctx, orderID)
}

func (f *StorefrontFacade) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return f.payments.HandleWebhook(ctx, payload, signature)
}

func (f *StorefrontFacade) PaymentStatus(ctx context.Context, paymentIntentID string) (*model.PaymentIntent, error) {
	return f.payments.PaymentStatus(ctx, paymentIntentID)
}

func (f *StorefrontFacade) AuthorizeDownload(ctx context.Context, orderID, productID string) (*model.DownloadGrant, error) {
	return f.downloads.AuthorizeDownload(ctx, orderID, productID)
}

func (f *StorefrontFacade) OrdersForReconciliation(ctx context.Context, olderThan time.Duration, limit int) ([]model.Order, error) {
	return f.payments.StaleOrders(ctx, olderThan, limit)
}

func (f *StorefrontFacade) ReconcileOrder(ctx context.Context, order model.Order) (bool, error) {
	return f.payments.Reconcile(ctx, order)
}

func (f *StorefrontFacade) Ping(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
