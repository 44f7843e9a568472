package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/polkiloo/archstore/internal/adapter/eventcache"
	"github.com/polkiloo/archstore/internal/adapter/mailer"
	"github.com/polkiloo/archstore/internal/adapter/payment"
	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/domain/model"
	"github.com/polkiloo/archstore/internal/domain/repository"
)

// PaymentUseCase drives orders through payment and settlement.
type PaymentUseCase struct {
	orders      repository.OrderRepository
	gateway     payment.Gateway
	notifier    mailer.Notifier
	events      eventcache.Cache
	maxAttempts int
	logger      *slog.Logger
}

// NewPaymentUseCase constructs PaymentUseCase. A non-positive maxAttempts
// removes the attempt cap.
func NewPaymentUseCase(
	orders repository.OrderRepository,
	gateway payment.Gateway,
	notifier mailer.Notifier,
	events eventcache.Cache,
	maxAttempts int,
	logger *slog.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		orders:      orders,
		gateway:     gateway,
		notifier:    notifier,
		events:      events,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// InitiatePayment creates a provider intent for the order and attaches it.
// Failed orders may be retried; completed orders may not.
func (u *PaymentUseCase) InitiatePayment(ctx context.Context, orderID string) (*model.PaymentIntent, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == model.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: order %s is already paid", domainErrors.ErrConflict, orderID)
	}
	if u.maxAttempts > 0 && order.PaymentAttempts >= u.maxAttempts {
		return nil, fmt.Errorf("%w: order %s", domainErrors.ErrPaymentAttemptsExceeded, orderID)
	}

	intent, err := u.gateway.CreatePaymentIntent(ctx, order)
	if err != nil {
		return nil, err
	}

	if _, applied, err := u.orders.AttachPaymentIntent(ctx, orderID, intent.ID); err != nil {
		return nil, err
	} else if !applied {
		u.logger.Warn("order settled before intent was attached",
			slog.String("order_id", orderID), slog.String("payment_intent_id", intent.ID))
		return nil, fmt.Errorf("%w: order %s is already paid", domainErrors.ErrConflict, orderID)
	}

	u.logger.Info("payment initiated",
		slog.String("order_id", orderID),
		slog.String("payment_intent_id", intent.ID),
		slog.Int("attempt", order.PaymentAttempts+1))
	return intent, nil
}

// HandleWebhook verifies and applies a provider notification. Returning nil
// acknowledges the delivery; an error makes the provider retry it.
func (u *PaymentUseCase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := u.gateway.ParseWebhook(payload, signature)
	if err != nil {
		u.logger.Warn("webhook rejected", slog.Any("error", err))
		return err
	}

	logger := u.logger.With(slog.String("event_id", event.ID), slog.String("event_type", event.RawType))

	if event.ID != "" {
		seen, err := u.events.Seen(ctx, event.ID)
		if err != nil {
			logger.Warn("event cache lookup failed", slog.Any("error", err))
		} else if seen {
			logger.Info("duplicate webhook acknowledged")
			return nil
		}
	}

	var status model.OrderStatus
	switch event.Type {
	case model.PaymentEventSucceeded:
		status = model.OrderStatusCompleted
	case model.PaymentEventFailed:
		status = model.OrderStatusFailed
	default:
		logger.Debug("webhook ignored")
		u.remember(ctx, logger, event.ID)
		return nil
	}

	if event.OrderID == "" {
		logger.Warn("payment event without order metadata", slog.String("payment_intent_id", event.PaymentIntentID))
		u.remember(ctx, logger, event.ID)
		return nil
	}

	if _, err := u.settle(ctx, event.OrderID, event.PaymentIntentID, status); err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			logger.Warn("payment event for unknown order", slog.String("order_id", event.OrderID))
			u.remember(ctx, logger, event.ID)
			return nil
		}
		return err
	}

	u.remember(ctx, logger, event.ID)
	return nil
}

// PaymentStatus returns the provider view of an intent.
func (u *PaymentUseCase) PaymentStatus(ctx context.Context, paymentIntentID string) (*model.PaymentIntent, error) {
	return u.gateway.GetPaymentIntent(ctx, paymentIntentID)
}

// StaleOrders returns pending orders with an intent untouched for olderThan.
func (u *PaymentUseCase) StaleOrders(ctx context.Context, olderThan time.Duration, limit int) ([]model.Order, error) {
	return u.orders.SelectForReconciliation(ctx, olderThan, limit)
}

// Reconcile asks the provider for the intent of a pending order and settles
// the order when the intent reached a final state. The bool reports whether
// the order changed.
func (u *PaymentUseCase) Reconcile(ctx context.Context, order model.Order) (bool, error) {
	if order.PaymentIntentID == nil || *order.PaymentIntentID == "" {
		return false, nil
	}
	intentID := *order.PaymentIntentID

	intent, err := u.gateway.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return false, err
	}

	var status model.OrderStatus
	switch intent.Status {
	case model.IntentStatusSucceeded:
		status = model.OrderStatusCompleted
	case model.IntentStatusCanceled:
		status = model.OrderStatusFailed
	default:
		return false, nil
	}

	applied, err := u.settle(ctx, order.ID, intentID, status)
	if err != nil {
		return false, err
	}
	if applied {
		u.logger.Info("order reconciled",
			slog.String("order_id", order.ID),
			slog.String("payment_intent_id", intentID),
			slog.String("status", string(status)))
	}
	return applied, nil
}

func (u *PaymentUseCase) settle(ctx context.Context, orderID, intentID string, status model.OrderStatus) (bool, error) {
	order, applied, err := u.orders.Settle(ctx, orderID, intentID, status)
	if err != nil {
		return false, err
	}
	if !applied {
		u.logger.Info("settlement skipped",
			slog.String("order_id", orderID),
			slog.String("payment_intent_id", intentID),
			slog.String("current_status", string(order.Status)))
		return false, nil
	}

	u.logger.Info("order settled",
		slog.String("order_id", orderID),
		slog.String("payment_intent_id", intentID),
		slog.String("status", string(status)))

	if status == model.OrderStatusCompleted {
		if err := u.notifier.SendOrderConfirmation(ctx, order); err != nil {
			u.logger.Error("order confirmation not sent", slog.String("order_id", orderID), slog.Any("error", err))
		}
	}
	return true, nil
}

func (u *PaymentUseCase) remember(ctx context.Context, logger *slog.Logger, eventID string) {
	if eventID == "" {
		return
	}
	if err := u.events.Remember(ctx, eventID); err != nil {
		logger.Warn("event cache update failed", slog.Any("error", err))
	}
}
