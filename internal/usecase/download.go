package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/polkiloo/archstore/internal/adapter/objectstore"
	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/domain/model"
	"github.com/polkiloo/archstore/internal/domain/repository"
)

// DownloadOptions configures object keys and link lifetime.
type DownloadOptions struct {
	KeyPrefix string
	KeyExt    string
	Expiry    time.Duration
}

const defaultDownloadExpiry = 15 * time.Minute

// DownloadUseCase grants time-limited links to purchased files.
type DownloadUseCase struct {
	orders    repository.OrderRepository
	presigner objectstore.Presigner
	opts      DownloadOptions
}

// NewDownloadUseCase constructs DownloadUseCase.
func NewDownloadUseCase(orders repository.OrderRepository, presigner objectstore.Presigner, opts DownloadOptions) *DownloadUseCase {
	if opts.Expiry <= 0 {
		opts.Expiry = defaultDownloadExpiry
	}
	return &DownloadUseCase{orders: orders, presigner: presigner, opts: opts}
}

// AuthorizeDownload returns a signed link when the order is completed and
// contains the product.
func (u *DownloadUseCase) AuthorizeDownload(ctx context.Context, orderID, productID string) (*model.DownloadGrant, error) {
	if orderID == "" || productID == "" {
		return nil, fmt.Errorf("%w: order id and product id are required", domainErrors.ErrValidation)
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: order %s is %s", domainErrors.ErrForbidden, orderID, order.Status)
	}
	item, ok := order.Item(productID)
	if !ok {
		return nil, fmt.Errorf("%w: product %s is not part of order %s", domainErrors.ErrForbidden, productID, orderID)
	}

	url, err := u.presigner.PresignGet(ctx, u.ObjectKey(productID), u.opts.Expiry)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: presign download: %w", domainErrors.ErrUpstream, err)
	}

	return &model.DownloadGrant{
		URL:         url,
		ProductName: item.ProductName,
		ExpiresIn:   int(u.opts.Expiry / time.Second),
	}, nil
}

// ObjectKey maps a product id to its file in the bucket.
func (u *DownloadUseCase) ObjectKey(productID string) string {
	return u.opts.KeyPrefix + productID + u.opts.KeyExt
}
