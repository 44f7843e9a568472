package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest is a cart line submitted at checkout.
type OrderItemRequest struct {
	ProductID   string           `json:"productId" binding:"required"`
	ProductName string           `json:"productName" binding:"required"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Quantity    int              `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	CustomerEmail string             `json:"customerEmail" binding:"required,email"`
	CustomerName  string             `json:"customerName" binding:"required"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateStatusRequest is the operator status override.
type UpdateStatusRequest struct {
	Status          string  `json:"status" binding:"required,oneof=pending completed failed"`
	PaymentIntentID *string `json:"paymentIntentId"`
}

// OrderItemResponse describes a purchased line.
type OrderItemResponse struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// OrderResponse describes an order.
type OrderResponse struct {
	ID              string              `json:"id"`
	CustomerEmail   string              `json:"customerEmail"`
	CustomerName    string              `json:"customerName"`
	Items           []OrderItemResponse `json:"items"`
	Total           float64             `json:"total"`
	Status          string              `json:"status"`
	PaymentIntentID *string             `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}
