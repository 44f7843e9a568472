package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/domain/model"
)

// StorefrontFacadeStub provides controllable behaviour for HTTP handlers.
// Unset functions fall back to a not-found answer or an empty result.
type StorefrontFacadeStub struct {
	ProductsFn      func(context.Context, string) ([]model.Product, error)
	ProductFn       func(context.Context, string) (*model.Product, error)
	CreateProductFn func(context.Context, string, string, decimal.Decimal, string, string, string) (*model.Product, error)
	DeleteProductFn func(context.Context, string) error

	CreateOrderFn  func(context.Context, string, string, []model.OrderItem) (*model.Order, error)
	OrderFn        func(context.Context, string) (*model.Order, error)
	OrdersFn       func(context.Context) ([]model.Order, error)
	UpdateStatusFn func(context.Context, string, model.OrderStatus, *string) (*model.Order, error)

	InitiatePaymentFn func(context.Context, string) (*model.PaymentIntent, error)
	HandleWebhookFn   func(context.Context, []byte, string) error
	PaymentStatusFn   func(context.Context, string) (*model.PaymentIntent, error)

	AuthorizeDownloadFn func(context.Context, string, string) (*model.DownloadGrant, error)

	PingFn func(context.Context) error
}

func (s StorefrontFacadeStub) Products(ctx context.Context, category string) ([]model.Product, error) {
	if s.ProductsFn != nil {
		return s.ProductsFn(ctx, category)
	}
	return nil, nil
}

func (s StorefrontFacadeStub) Product(ctx context.Context, id string) (*model.Product, error) {
	if s.ProductFn != nil {
		return s.ProductFn(ctx, id)
	}
	return nil, domainErrors.ErrNotFound
}

func (s StorefrontFacadeStub) CreateProduct(ctx context.Context, name, description string, price decimal.Decimal, category, image, fileURL string) (*model.Product, error) {
	if s.CreateProductFn != nil {
		return s.CreateProductFn(ctx, name, description, price, category, image, fileURL)
	}
	return model.NewProduct(name, description, price, category, image, fileURL)
}

func (s StorefrontFacadeStub) DeleteProduct(ctx context.Context, id string) error {
	if s.DeleteProductFn != nil {
		return s.DeleteProductFn(ctx, id)
	}
	return nil
}

func (s StorefrontFacadeStub) CreateOrder(ctx context.Context, customerEmail, customerName string, items []model.OrderItem) (*model.Order, error) {
	if s.CreateOrderFn != nil {
		return s.CreateOrderFn(ctx, customerEmail, customerName, items)
	}
	return model.NewOrder(customerEmail, customerName, items)
}

func (s StorefrontFacadeStub) Order(ctx context.Context, id string) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, id)
	}
	return nil, domainErrors.ErrNotFound
}

func (s StorefrontFacadeStub) Orders(ctx context.Context) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx)
	}
	return nil, nil
}

func (s StorefrontFacadeStub) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, paymentIntentID *string) (*model.Order, error) {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, id, status, paymentIntentID)
	}
	return nil, domainErrors.ErrNotFound
}

func (s StorefrontFacadeStub) InitiatePayment(ctx context.Context, orderID string) (*model.PaymentIntent, error) {
	if s.InitiatePaymentFn != nil {
		return s.InitiatePaymentFn(ctx, orderID)
	}
	return nil, domainErrors.ErrNotFound
}

func (s StorefrontFacadeStub) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.HandleWebhookFn != nil {
		return s.HandleWebhookFn(ctx, payload, signature)
	}
	return nil
}

func (s StorefrontFacadeStub) PaymentStatus(ctx context.Context, paymentIntentID string) (*model.PaymentIntent, error) {
	if s.PaymentStatusFn != nil {
		return s.PaymentStatusFn(ctx, paymentIntentID)
	}
	return nil, domainErrors.ErrNotFound
}

func (s StorefrontFacadeStub) AuthorizeDownload(ctx context.Context, orderID, productID string) (*model.DownloadGrant, error) {
	if s.AuthorizeDownloadFn != nil {
		return s.AuthorizeDownloadFn(ctx, orderID, productID)
	}
	return nil, domainErrors.ErrNotFound
}

func (s StorefrontFacadeStub) Ping(ctx context.Context) error {
	if s.PingFn != nil {
		return s.PingFn(ctx)
	}
	return nil
}

// ReconcileCall stores information about ReconcileOrder invocations.
type ReconcileCall struct {
	OrderID string
}

// WorkerFacadeStub mimics reconciler interactions with the storefront facade.
type WorkerFacadeStub struct {
	Orders      [][]model.Order
	OrdersFn    func(context.Context, time.Duration, int) ([]model.Order, error)
	ReconcileFn func(context.Context, model.Order) (bool, error)
	Calls       []ReconcileCall

	mu              sync.Mutex
	ordersCallCount int32
}

// Lock exposes internal mutex for external synchronization.
func (s *WorkerFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *WorkerFacadeStub) Unlock() { s.mu.Unlock() }

// OrdersForReconciliation returns batches from the configured queue.
func (s *WorkerFacadeStub) OrdersForReconciliation(ctx context.Context, olderThan time.Duration, limit int) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, olderThan, limit)
	}
	call := atomic.AddInt32(&s.ordersCallCount, 1)
	if int(call) <= len(s.Orders) {
		return s.Orders[call-1], nil
	}
	return nil, nil
}

// ReconcileOrder records reconcile requests.
func (s *WorkerFacadeStub) ReconcileOrder(ctx context.Context, order model.Order) (bool, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, ReconcileCall{OrderID: order.ID})
	s.mu.Unlock()
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx, order)
	}
	return true, nil
}

// Reconciled returns the number of recorded reconcile calls.
func (s *WorkerFacadeStub) Reconciled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// HealthCheckerStub reports configured readiness.
type HealthCheckerStub struct {
	Err error
}

// HealthCheck returns the configured error.
func (h HealthCheckerStub) HealthCheck(context.Context) error {
	return h.Err
}
