package postgres

import (
	"context"
	"fmt"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/domain/model"
)

const (
	productColumns = `id, name, description, price, category, image, file_url, created_at`

	selectProducts = `SELECT ` + productColumns + ` FROM products
                      WHERE ($1 = '' OR category = $1)
                      ORDER BY created_at DESC`

	selectProductByID = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	insertProduct = `INSERT INTO products (id, name, description, price, category, image, file_url)
                     VALUES ($1, $2, $3, $4, $5, $6, $7)
                     RETURNING created_at`

	deleteProduct = `DELETE FROM products WHERE id = $1`
)

func (r *productRepository) List(ctx context.Context, category string) ([]model.Product, error) {
	var products []model.Product
	err := r.storage.read(ctx, func(ctx context.Context) error {
		rows, err := r.storage.pool.Query(ctx, selectProducts, category)
		if err != nil {
			return err
		}
		defer rows.Close()

		products = products[:0]
		for rows.Next() {
			var p model.Product
			if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Image, &p.FileURL, &p.CreatedAt); err != nil {
				return err
			}
			products = append(products, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.storage.read(ctx, func(ctx context.Context) error {
		return r.storage.pool.QueryRow(ctx, selectProductByID, id).
			Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Image, &p.FileURL, &p.CreatedAt)
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	ctx, cancel := r.storage.withTimeout(ctx)
	defer cancel()

	err := r.storage.pool.QueryRow(ctx, insertProduct,
		product.ID, product.Name, product.Description, product.Price, product.Category, product.Image, product.FileURL,
	).Scan(&product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: product %s already exists", domainErrors.ErrConflict, product.ID)
		}
		return err
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.storage.withTimeout(ctx)
	defer cancel()

	tag, err := r.storage.pool.Exec(ctx, deleteProduct, id)
	if err != nil {
		return notFound(err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
