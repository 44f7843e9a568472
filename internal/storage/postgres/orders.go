package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/domain/model"
)

const (
	orderHeaderColumns = `o.id, o.customer_email, o.customer_name, o.total, o.status, o.payment_intent_id, o.payment_attempts, o.created_at, o.updated_at`
	orderItemColumns   = `i.product_id, i.product_name, i.price, i.quantity`

	selectOrderByID = `SELECT ` + orderHeaderColumns + `, ` + orderItemColumns + `
                       FROM orders o JOIN order_items i ON i.order_id = o.id
                       WHERE o.id = $1
                       ORDER BY i.position`

	selectOrders = `SELECT ` + orderHeaderColumns + `, ` + orderItemColumns + `
                    FROM orders o JOIN order_items i ON i.order_id = o.id
                    ORDER BY o.created_at DESC, o.id, i.position`

	insertOrder = `INSERT INTO orders (id, customer_email, customer_name, total, status, payment_attempts)
                   VALUES ($1, $2, $3, $4, $5, 0)
                   RETURNING created_at, updated_at`

	insertOrderItem = `INSERT INTO order_items (order_id, position, product_id, product_name, price, quantity)
                       VALUES ($1, $2, $3, $4, $5, $6)`

	updateOrderStatus = `UPDATE orders SET status = $1, payment_intent_id = COALESCE($2, payment_intent_id), updated_at = NOW()
                         WHERE id = $3
                         RETURNING id`

	attachPaymentIntent = `UPDATE orders SET payment_intent_id = $1, status = 'pending', payment_attempts = payment_attempts + 1, updated_at = NOW()
                           WHERE id = $2 AND status IN ('pending', 'failed')
                           RETURNING id`

	// A failed order completes only on a success of its current intent.
	settleCompleted = `UPDATE orders SET status = 'completed', payment_intent_id = $1, updated_at = NOW()
                       WHERE id = $2 AND (status = 'pending' OR (status = 'failed' AND payment_intent_id = $1))
                       RETURNING id`

	settleFailed = `UPDATE orders SET status = 'failed', updated_at = NOW()
                    WHERE id = $2 AND status = 'pending' AND payment_intent_id = $1
                    RETURNING id`

	claimStaleOrders = `UPDATE orders SET reconciled_at = NOW()
                        WHERE id IN (
                            SELECT id FROM orders
                            WHERE status = 'pending' AND payment_intent_id IS NOT NULL
                              AND GREATEST(updated_at, reconciled_at) < $1
                            ORDER BY GREATEST(updated_at, reconciled_at)
                            LIMIT $2
                            FOR UPDATE SKIP LOCKED
                        )
                        RETURNING id, customer_email, customer_name, total, status, payment_intent_id, payment_attempts, created_at, updated_at`
)

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	ctx, cancel := r.storage.withTimeout(ctx)
	defer cancel()

	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertOrder, order.ID, order.CustomerEmail, order.CustomerName, order.Total, order.Status).
			Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: order %s already exists", domainErrors.ErrConflict, order.ID)
			}
			return err
		}

		for position, item := range order.Items {
			if _, err := tx.Exec(ctx, insertOrderItem, order.ID, position, item.ProductID, item.ProductName, item.Price, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var order *model.Order
	err := r.storage.read(ctx, func(ctx context.Context) error {
		var err error
		order, err = loadOrder(ctx, r.storage.pool, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.storage.read(ctx, func(ctx context.Context) error {
		rows, err := r.storage.pool.Query(ctx, selectOrders)
		if err != nil {
			return err
		}
		orders, err = collectOrders(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, paymentIntentID *string) (*model.Order, error) {
	ctx, cancel := r.storage.withTimeout(ctx)
	defer cancel()

	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var updatedID string
		if err := tx.QueryRow(ctx, updateOrderStatus, status, paymentIntentID, id).Scan(&updatedID); err != nil {
			return notFound(err)
		}
		var err error
		order, err = loadOrder(ctx, tx, updatedID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) AttachPaymentIntent(ctx context.Context, id, paymentIntentID string) (*model.Order, bool, error) {
	return r.conditionalUpdate(ctx, id, attachPaymentIntent, paymentIntentID, id)
}

func (r *orderRepository) Settle(ctx context.Context, id, paymentIntentID string, status model.OrderStatus) (*model.Order, bool, error) {
	switch status {
	case model.OrderStatusCompleted:
		return r.conditionalUpdate(ctx, id, settleCompleted, paymentIntentID, id)
	case model.OrderStatusFailed:
		return r.conditionalUpdate(ctx, id, settleFailed, paymentIntentID, id)
	default:
		return nil, false, fmt.Errorf("%w: cannot settle order to %q", domainErrors.ErrValidation, status)
	}
}

// conditionalUpdate runs a guarded UPDATE ... RETURNING id and reloads the
// order in the same transaction whether or not the guard matched.
func (r *orderRepository) conditionalUpdate(ctx context.Context, id, query string, args ...any) (*model.Order, bool, error) {
	ctx, cancel := r.storage.withTimeout(ctx)
	defer cancel()

	var (
		order   *model.Order
		applied bool
	)
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var updatedID string
		switch err := tx.QueryRow(ctx, query, args...).Scan(&updatedID); {
		case err == nil:
			applied = true
		case errors.Is(err, pgx.ErrNoRows):
			applied = false
		default:
			return notFound(err)
		}

		var err error
		order, err = loadOrder(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return order, applied, nil
}

// SelectForReconciliation claims pending orders with an attached intent that
// were neither changed nor claimed within olderThan. Claimed rows get a fresh
// reconciled_at, so a concurrent caller skips them while updated_at keeps
// tracking real changes. Items are not loaded.
func (r *orderRepository) SelectForReconciliation(ctx context.Context, olderThan time.Duration, limit int) ([]model.Order, error) {
	ctx, cancel := r.storage.withTimeout(ctx)
	defer cancel()

	rows, err := r.storage.pool.Query(ctx, claimStaleOrders, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.CustomerEmail, &o.CustomerName, &o.Total, &o.Status, &o.PaymentIntentID, &o.PaymentAttempts, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func loadOrder(ctx context.Context, q querier, id string) (*model.Order, error) {
	rows, err := q.Query(ctx, selectOrderByID, id)
	if err != nil {
		return nil, notFound(err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, notFound(err)
	}
	if len(orders) == 0 {
		return nil, domainErrors.ErrNotFound
	}
	return &orders[0], nil
}

// collectOrders folds joined header+item rows into orders. Rows of the same
// order must be adjacent.
func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		var (
			o    model.Order
			item model.OrderItem
		)
		if err := rows.Scan(
			&o.ID, &o.CustomerEmail, &o.CustomerName, &o.Total, &o.Status, &o.PaymentIntentID, &o.PaymentAttempts, &o.CreatedAt, &o.UpdatedAt,
			&item.ProductID, &item.ProductName, &item.Price, &item.Quantity,
		); err != nil {
			return nil, err
		}

		if n := len(result); n > 0 && result[n-1].ID == o.ID {
			result[n-1].Items = append(result[n-1].Items, item)
			continue
		}
		o.Items = []model.OrderItem{item}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
