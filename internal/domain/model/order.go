package model

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
)

// OrderStatus describes settlement lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no webhook transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed
}

// OrderItem is an immutable snapshot of a purchased product.
type OrderItem struct {
	ProductID   string
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

// Subtotal returns price multiplied by quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order describes a customer's purchase and its settlement status.
type Order struct {
	ID              string
	CustomerEmail   string
	CustomerName    string
	Items           []OrderItem
	Total           decimal.Decimal
	Status          OrderStatus
	PaymentIntentID *string
	PaymentAttempts int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Item returns the line item for productID.
func (o *Order) Item(productID string) (OrderItem, bool) {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return OrderItem{}, false
}

var newOrderID = uuid.NewString

// NewOrder validates the request and builds a pending order with a fresh id
// and the total computed from the item snapshot.
func NewOrder(customerEmail, customerName string, items []OrderItem) (*Order, error) {
	customerEmail = strings.TrimSpace(customerEmail)
	customerName = strings.TrimSpace(customerName)

	if customerEmail == "" {
		return nil, fmt.Errorf("%w: customer email is required", domainErrors.ErrValidation)
	}
	if _, err := mail.ParseAddress(customerEmail); err != nil {
		return nil, fmt.Errorf("%w: customer email is malformed", domainErrors.ErrValidation)
	}
	if customerName == "" {
		return nil, fmt.Errorf("%w: customer name is required", domainErrors.ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", domainErrors.ErrValidation)
	}

	total := decimal.Zero
	snapshot := make([]OrderItem, 0, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, fmt.Errorf("%w: item %d has no product id", domainErrors.ErrValidation, i)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", domainErrors.ErrValidation, i)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: item %d price must not be negative", domainErrors.ErrValidation, i)
		}
		total = total.Add(item.Subtotal())
		snapshot = append(snapshot, item)
	}

	return &Order{
		ID:            newOrderID(),
		CustomerEmail: customerEmail,
		CustomerName:  customerName,
		Items:         snapshot,
		Total:         total,
		Status:        OrderStatusPending,
	}, nil
}
