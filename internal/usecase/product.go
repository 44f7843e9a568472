package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/archstore/internal/domain/model"
	"github.com/polkiloo/archstore/internal/domain/repository"
)

// ProductUseCase manages the catalog.
type ProductUseCase struct {
	products repository.ProductRepository
}

// NewProductUseCase constructs ProductUseCase.
func NewProductUseCase(products repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{products: products}
}

// Products lists the catalog, optionally narrowed to a category.
func (u *ProductUseCase) Products(ctx context.Context, category string) ([]model.Product, error) {
	return u.products.List(ctx, category)
}

// Product returns a single catalog entry.
func (u *ProductUseCase) Product(ctx context.Context, id string) (*model.Product, error) {
	return u.products.GetByID(ctx, id)
}

// CreateProduct validates and stores a new product.
func (u *ProductUseCase) CreateProduct(ctx context.Context, name, description string, price decimal.Decimal, category, image, fileURL string) (*model.Product, error) {
	product, err := model.NewProduct(name, description, price, category, image, fileURL)
	if err != nil {
		return nil, err
	}
	if err := u.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product from the catalog.
func (u *ProductUseCase) DeleteProduct(ctx context.Context, id string) error {
	return u.products.Delete(ctx, id)
}
