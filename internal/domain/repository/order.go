package repository

import (
	"context"
	"time"

	"github.com/polkiloo/archstore/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus, paymentIntentID *string) (*model.Order, error)
	// AttachPaymentIntent applies only to pending or failed orders. The bool
	// reports whether the row was updated.
	AttachPaymentIntent(ctx context.Context, id, paymentIntentID string) (*model.Order, bool, error)
	// Settle moves a pending order to completed or failed, and a failed order
	// to completed when paymentIntentID is its stored intent. Failing requires
	// the stored intent too. The bool reports whether the transition happened;
	// the returned order is current either way.
	Settle(ctx context.Context, id, paymentIntentID string, status model.OrderStatus) (*model.Order, bool, error)
	SelectForReconciliation(ctx context.Context, olderThan time.Duration, limit int) ([]model.Order, error)
}
