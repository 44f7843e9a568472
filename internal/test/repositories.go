package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/domain/model"
)

// OrderRepositoryStub keeps orders in memory and applies the same conditional
// transitions as the PostgreSQL store.
type OrderRepositoryStub struct {
	mu     sync.Mutex
	Orders map[string]*model.Order
	Err    error
	// Stale is returned by SelectForReconciliation when set.
	Stale []model.Order
}

// NewOrderRepositoryStub constructs an empty stub repository.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{Orders: make(map[string]*model.Order)}
}

// Create stores a copy of the order.
func (s *OrderRepositoryStub) Create(_ context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, exists := s.Orders[order.ID]; exists {
		return domainErrors.ErrConflict
	}
	stored := cloneOrder(order)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
		stored.UpdatedAt = stored.CreatedAt
	}
	s.Orders[order.ID] = stored
	return nil
}

// GetByID returns a copy of the stored order.
func (s *OrderRepositoryStub) GetByID(_ context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	order, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return cloneOrder(order), nil
}

// List returns all orders newest first.
func (s *OrderRepositoryStub) List(context.Context) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]model.Order, 0, len(s.Orders))
	for _, order := range s.Orders {
		result = append(result, *cloneOrder(order))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// UpdateStatus overwrites the status unconditionally.
func (s *OrderRepositoryStub) UpdateStatus(_ context.Context, id string, status model.OrderStatus, paymentIntentID *string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	order, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	order.Status = status
	if paymentIntentID != nil {
		order.PaymentIntentID = stringPtr(*paymentIntentID)
	}
	order.UpdatedAt = time.Now()
	return cloneOrder(order), nil
}

// AttachPaymentIntent records a new intent for a pending or failed order.
func (s *OrderRepositoryStub) AttachPaymentIntent(_ context.Context, id, paymentIntentID string) (*model.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, false, s.Err
	}
	order, ok := s.Orders[id]
	if !ok {
		return nil, false, domainErrors.ErrNotFound
	}
	if order.Status == model.OrderStatusCompleted {
		return cloneOrder(order), false, nil
	}
	order.PaymentIntentID = stringPtr(paymentIntentID)
	order.PaymentAttempts++
	order.Status = model.OrderStatusPending
	order.UpdatedAt = time.Now()
	return cloneOrder(order), true, nil
}

// Settle moves a pending order to a terminal status.
func (s *OrderRepositoryStub) Settle(_ context.Context, id, paymentIntentID string, status model.OrderStatus) (*model.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, false, s.Err
	}
	if status != model.OrderStatusCompleted && status != model.OrderStatusFailed {
		return nil, false, domainErrors.ErrValidation
	}
	order, ok := s.Orders[id]
	if !ok {
		return nil, false, domainErrors.ErrNotFound
	}
	currentIntent := order.PaymentIntentID != nil && *order.PaymentIntentID == paymentIntentID
	switch {
	case order.Status == model.OrderStatusPending && status == model.OrderStatusCompleted:
	case order.Status == model.OrderStatusPending && status == model.OrderStatusFailed && currentIntent:
	case order.Status == model.OrderStatusFailed && status == model.OrderStatusCompleted && currentIntent:
	default:
		return cloneOrder(order), false, nil
	}
	order.Status = status
	order.PaymentIntentID = stringPtr(paymentIntentID)
	order.UpdatedAt = time.Now()
	return cloneOrder(order), true, nil
}

// SelectForReconciliation returns the configured stale orders.
func (s *OrderRepositoryStub) SelectForReconciliation(_ context.Context, _ time.Duration, limit int) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if limit > 0 && len(s.Stale) > limit {
		return append([]model.Order(nil), s.Stale[:limit]...), nil
	}
	return append([]model.Order(nil), s.Stale...), nil
}

// Get returns the stored order without copying, for assertions.
func (s *OrderRepositoryStub) Get(id string) *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Orders[id]
}

// ProductRepositoryStub keeps catalog products in memory.
type ProductRepositoryStub struct {
	mu       sync.Mutex
	Products map[string]*model.Product
	Err      error
}

// NewProductRepositoryStub constructs an empty product stub.
func NewProductRepositoryStub() *ProductRepositoryStub {
	return &ProductRepositoryStub{Products: make(map[string]*model.Product)}
}

// List filters by category when it is not empty.
func (s *ProductRepositoryStub) List(_ context.Context, category string) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]model.Product, 0, len(s.Products))
	for _, p := range s.Products {
		if category == "" || p.Category == category {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

// GetByID returns a stored product.
func (s *ProductRepositoryStub) GetByID(_ context.Context, id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.Products[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

// Create stores a product and stamps its creation time.
func (s *ProductRepositoryStub) Create(_ context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, exists := s.Products[product.ID]; exists {
		return domainErrors.ErrConflict
	}
	product.CreatedAt = time.Now()
	copied := *product
	s.Products[product.ID] = &copied
	return nil
}

// Delete removes a product.
func (s *ProductRepositoryStub) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.Products[id]; !ok {
		return domainErrors.ErrNotFound
	}
	delete(s.Products, id)
	return nil
}

func cloneOrder(order *model.Order) *model.Order {
	copied := *order
	copied.Items = append([]model.OrderItem(nil), order.Items...)
	if order.PaymentIntentID != nil {
		copied.PaymentIntentID = stringPtr(*order.PaymentIntentID)
	}
	return &copied
}

func stringPtr(v string) *string {
	return &v
}
