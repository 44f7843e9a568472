package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
)

// Product is a downloadable asset offered in the catalog.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Image       string
	FileURL     string
	CreatedAt   time.Time
}

// NewProduct validates catalog input and assigns an id.
func NewProduct(name, description string, price decimal.Decimal, category, image, fileURL string) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", domainErrors.ErrValidation)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: product price must not be negative", domainErrors.ErrValidation)
	}
	return &Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Price:       price,
		Category:    strings.TrimSpace(category),
		Image:       image,
		FileURL:     fileURL,
	}, nil
}
