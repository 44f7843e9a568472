package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductRequest describes a new catalog entry.
type ProductRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Category    string           `json:"category"`
	Image       string           `json:"image"`
	FileURL     string           `json:"fileUrl"`
}

// ProductResponse describes a catalog entry.
type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	FileURL     string    `json:"fileUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}
