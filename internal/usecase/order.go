package usecase

import (
	"context"
	"fmt"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/domain/model"
	"github.com/polkiloo/archstore/internal/domain/repository"
)

// OrderUseCase encapsulates order creation and lookups.
type OrderUseCase struct {
	orders repository.OrderRepository
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository) *OrderUseCase {
	return &OrderUseCase{orders: orders}
}

// CreateOrder validates the request, computes the total and persists a pending order.
func (u *OrderUseCase) CreateOrder(ctx context.Context, customerEmail, customerName string, items []model.OrderItem) (*model.Order, error) {
	order, err := model.NewOrder(customerEmail, customerName, items)
	if err != nil {
		return nil, err
	}
	if err := u.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Order returns a single order with its items.
func (u *OrderUseCase) Order(ctx context.Context, id string) (*model.Order, error) {
	return u.orders.GetByID(ctx, id)
}

// Orders returns all orders newest first.
func (u *OrderUseCase) Orders(ctx context.Context) ([]model.Order, error) {
	return u.orders.List(ctx)
}

// UpdateStatus overwrites the order status. Used by operators only.
func (u *OrderUseCase) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, paymentIntentID *string) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domainErrors.ErrValidation, status)
	}
	return u.orders.UpdateStatus(ctx, id, status, paymentIntentID)
}
