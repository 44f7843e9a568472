package repository

import (
	"context"

	"github.com/polkiloo/archstore/internal/domain/model"
)

// ProductRepository describes persistence operations with catalog products.
type ProductRepository interface {
	List(ctx context.Context, category string) ([]model.Product, error)
	GetByID(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error
}
