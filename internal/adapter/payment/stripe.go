package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/domain/model"
)

// Placeholder values shipped in sample environment files.
const (
	placeholderSecretKey     = "sk_test_your_stripe_secret_key_here"
	placeholderWebhookSecret = "whsec_your_webhook_secret_here"
)

// Metadata keys attached to every payment intent.
const (
	MetadataOrderID       = "orderId"
	MetadataCustomerEmail = "customerEmail"
)

const (
	eventIntentSucceeded = "payment_intent.succeeded"
	eventIntentFailed    = "payment_intent.payment_failed"
)

// ErrNotConfigured indicates missing or placeholder provider credentials.
var ErrNotConfigured = errors.New("payment provider is not configured")

// Gateway exposes operations against the payment provider.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, order *model.Order) (*model.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*model.PaymentIntent, error)
	ParseWebhook(payload []byte, signature string) (*model.PaymentEvent, error)
}

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Options configures StripeGateway.
type Options struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

// StripeGateway implements Gateway with the Stripe PaymentIntents API.
type StripeGateway struct {
	intents       intentAPI
	webhookSecret string
	currency      string
	timeout       time.Duration
	logger        *slog.Logger
}

// NewStripeGateway validates credentials and builds a Stripe-backed gateway.
func NewStripeGateway(opts Options, logger *slog.Logger) (*StripeGateway, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: opts.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &leveledLogger{logger: logger},
	})

	return newStripeGateway(&paymentintent.Client{B: backend, Key: opts.SecretKey}, opts, logger), nil
}

func newStripeGateway(intents intentAPI, opts Options, logger *slog.Logger) *StripeGateway {
	currency := strings.ToLower(opts.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeGateway{
		intents:       intents,
		webhookSecret: opts.WebhookSecret,
		currency:      currency,
		timeout:       opts.Timeout,
		logger:        logger,
	}
}

func validateOptions(opts Options) error {
	switch key := strings.TrimSpace(opts.SecretKey); {
	case key == "":
		return fmt.Errorf("%w: secret key is empty", ErrNotConfigured)
	case key == placeholderSecretKey:
		return fmt.Errorf("%w: secret key is a placeholder", ErrNotConfigured)
	}
	switch secret := strings.TrimSpace(opts.WebhookSecret); {
	case secret == "":
		return fmt.Errorf("%w: webhook secret is empty", ErrNotConfigured)
	case secret == placeholderWebhookSecret:
		return fmt.Errorf("%w: webhook secret is a placeholder", ErrNotConfigured)
	}
	return nil
}

// CreatePaymentIntent creates an intent for the order total. The idempotency
// key is bound to the order and attempt number, so a retried request for the
// same attempt returns the same intent.
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, order *model.Order) (*model.PaymentIntent, error) {
	amount, err := ToMinorUnits(order.Total, g.currency)
	if err != nil {
		return nil, err
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		ReceiptEmail: stripe.String(order.CustomerEmail),
	}
	params.Context = ctx
	params.AddMetadata(MetadataOrderID, order.ID)
	params.AddMetadata(MetadataCustomerEmail, order.CustomerEmail)
	params.SetIdempotencyKey(IdempotencyKey(order.ID, order.PaymentAttempts+1))

	intent, err := g.intents.New(params)
	if err != nil {
		g.logger.Error("create payment intent failed", slog.String("order_id", order.ID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: create payment intent: %w", domainErrors.ErrUpstream, err)
	}

	return toModel(intent), nil
}

// GetPaymentIntent fetches the current state of an intent. Transport failures
// are retried once; provider-reported errors are not.
func (g *StripeGateway) GetPaymentIntent(ctx context.Context, id string) (*model.PaymentIntent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: payment intent id is required", domainErrors.ErrValidation)
	}

	fetch := func() (*stripe.PaymentIntent, error) {
		ctx, cancel := g.withTimeout(ctx)
		defer cancel()
		params := &stripe.PaymentIntentParams{}
		params.Context = ctx
		return g.intents.Get(id, params)
	}

	intent, err := fetch()
	if err != nil && isTransportError(err) && ctx.Err() == nil {
		g.logger.Warn("retrying payment intent lookup", slog.String("payment_intent_id", id), slog.Any("error", err))
		intent, err = fetch()
	}
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: payment intent %s", domainErrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get payment intent: %w", domainErrors.ErrUpstream, err)
	}

	return toModel(intent), nil
}

// ParseWebhook verifies the signature header over the raw payload and
// normalizes the event.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*model.PaymentEvent, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature header", domainErrors.ErrSignatureInvalid)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrSignatureInvalid, err)
	}

	result := &model.PaymentEvent{
		ID:      event.ID,
		RawType: string(event.Type),
		Type:    model.PaymentEventOther,
	}
	switch string(event.Type) {
	case eventIntentSucceeded:
		result.Type = model.PaymentEventSucceeded
	case eventIntentFailed:
		result.Type = model.PaymentEventFailed
	default:
		return result, nil
	}

	if event.Data == nil {
		return result, nil
	}
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		g.logger.Warn("payment event carries malformed intent", slog.String("event_id", event.ID), slog.Any("error", err))
		return result, nil
	}
	result.PaymentIntentID = intent.ID
	result.OrderID = intent.Metadata[MetadataOrderID]
	return result, nil
}

func (g *StripeGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// IdempotencyKey identifies one payment attempt of an order.
func IdempotencyKey(orderID string, attempt int) string {
	return fmt.Sprintf("order:%s:%d", orderID, attempt)
}

func isTransportError(err error) bool {
	var stripeErr *stripe.Error
	return !errors.As(err, &stripeErr)
}

func toModel(intent *stripe.PaymentIntent) *model.PaymentIntent {
	return &model.PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
		Amount:       intent.Amount,
		Currency:     string(intent.Currency),
		OrderID:      intent.Metadata[MetadataOrderID],
	}
}

// leveledLogger forwards stripe-go client logs to slog.
type leveledLogger struct {
	logger *slog.Logger
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *leveledLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *leveledLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *leveledLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}
