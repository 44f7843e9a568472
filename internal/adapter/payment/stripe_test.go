package payment

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/domain/model"
)

const testWebhookSecret = "whsec_test_secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fakeIntents struct {
	newParams []*stripe.PaymentIntentParams
	getCalls  int

	newFn func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	getFn func(call int, id string) (*stripe.PaymentIntent, error)
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.newParams = append(f.newParams, params)
	if f.newFn != nil {
		return f.newFn(params)
	}
	return &stripe.PaymentIntent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret",
		Status:       stripe.PaymentIntentStatusRequiresPaymentMethod,
		Amount:       *params.Amount,
		Currency:     stripe.Currency(*params.Currency),
		Metadata:     params.Metadata,
	}, nil
}

func (f *fakeIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.getCalls++
	if f.getFn != nil {
		return f.getFn(f.getCalls, id)
	}
	return &stripe.PaymentIntent{ID: id, Status: stripe.PaymentIntentStatusSucceeded, Amount: 2000, Currency: stripe.CurrencyUSD}, nil
}

func newTestGateway(intents intentAPI) *StripeGateway {
	return newStripeGateway(intents, Options{WebhookSecret: testWebhookSecret, Timeout: time.Second}, testLogger())
}

func testOrder(total string) *model.Order {
	return &model.Order{
		ID:            "o1",
		CustomerEmail: "ann@example.com",
		CustomerName:  "Ann",
		Total:         decimal.RequireFromString(total),
		Status:        model.OrderStatusPending,
	}
}

func signedHeader(payload []byte, secret string) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func eventPayload(id, eventType, intentID, orderID string) []byte {
	metadata := "{}"
	if orderID != "" {
		metadata = fmt.Sprintf(`{"orderId":%q}`, orderID)
	}
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","api_version":"2023-10-16","type":%q,"data":{"object":{"id":%q,"object":"payment_intent","metadata":%s}}}`,
		id, eventType, intentID, metadata))
}

func TestValidateOptions(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"valid", Options{SecretKey: "sk_test_1", WebhookSecret: "whsec_1"}, true},
		{"empty key", Options{WebhookSecret: "whsec_1"}, false},
		{"placeholder key", Options{SecretKey: placeholderSecretKey, WebhookSecret: "whsec_1"}, false},
		{"empty webhook secret", Options{SecretKey: "sk_test_1"}, false},
		{"placeholder webhook secret", Options{SecretKey: "sk_test_1", WebhookSecret: placeholderWebhookSecret}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateOptions(tc.opts)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrNotConfigured) {
				t.Fatalf("expected not configured, got %v", err)
			}
		})
	}

	if _, err := NewStripeGateway(Options{SecretKey: placeholderSecretKey, WebhookSecret: "whsec_1"}, testLogger()); err == nil {
		t.Fatal("expected constructor to reject placeholder")
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	intents := &fakeIntents{}
	gateway := newTestGateway(intents)

	order := testOrder("20.00")
	order.PaymentAttempts = 2

	intent, err := gateway.CreatePaymentIntent(context.Background(), order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.ID != "pi_1" || intent.ClientSecret != "pi_1_secret" || intent.OrderID != "o1" {
		t.Fatalf("unexpected intent %+v", intent)
	}

	params := intents.newParams[0]
	if *params.Amount != 2000 || *params.Currency != "usd" {
		t.Fatalf("unexpected amount %d %s", *params.Amount, *params.Currency)
	}
	if params.Metadata[MetadataOrderID] != "o1" || params.Metadata[MetadataCustomerEmail] != "ann@example.com" {
		t.Fatalf("unexpected metadata %v", params.Metadata)
	}
	if params.AutomaticPaymentMethods == nil || !*params.AutomaticPaymentMethods.Enabled {
		t.Fatal("expected automatic payment methods")
	}
	if params.IdempotencyKey == nil || *params.IdempotencyKey != "order:o1:3" {
		t.Fatalf("unexpected idempotency key %v", params.IdempotencyKey)
	}
	if params.Context == nil {
		t.Fatal("expected request context")
	}
}

func TestCreatePaymentIntentErrors(t *testing.T) {
	intents := &fakeIntents{}
	gateway := newTestGateway(intents)

	if _, err := gateway.CreatePaymentIntent(context.Background(), testOrder("0.00")); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(intents.newParams) != 0 {
		t.Fatal("provider must not be called for a zero amount")
	}

	providerErr := &stripe.Error{HTTPStatusCode: http.StatusPaymentRequired, Msg: "card declined"}
	intents.newFn = func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) { return nil, providerErr }
	_, err := gateway.CreatePaymentIntent(context.Background(), testOrder("5.00"))
	if !errors.Is(err, domainErrors.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		t.Fatal("expected provider error to stay in chain")
	}
}

func TestGetPaymentIntent(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		intents := &fakeIntents{}
		intent, err := newTestGateway(intents).GetPaymentIntent(context.Background(), "pi_9")
		if err != nil || intent.Status != "succeeded" || intent.Amount != 2000 || intent.Currency != "usd" {
			t.Fatalf("unexpected result %+v err=%v", intent, err)
		}
	})

	t.Run("transport error retried once", func(t *testing.T) {
		intents := &fakeIntents{getFn: func(call int, id string) (*stripe.PaymentIntent, error) {
			if call == 1 {
				return nil, errors.New("connection reset")
			}
			return &stripe.PaymentIntent{ID: id, Status: stripe.PaymentIntentStatusProcessing}, nil
		}}
		intent, err := newTestGateway(intents).GetPaymentIntent(context.Background(), "pi_9")
		if err != nil || intents.getCalls != 2 || intent.Status != "processing" {
			t.Fatalf("unexpected result %+v calls=%d err=%v", intent, intents.getCalls, err)
		}
	})

	t.Run("transport error twice", func(t *testing.T) {
		intents := &fakeIntents{getFn: func(int, string) (*stripe.PaymentIntent, error) {
			return nil, errors.New("connection reset")
		}}
		_, err := newTestGateway(intents).GetPaymentIntent(context.Background(), "pi_9")
		if !errors.Is(err, domainErrors.ErrUpstream) || intents.getCalls != 2 {
			t.Fatalf("expected upstream after one retry, calls=%d err=%v", intents.getCalls, err)
		}
	})

	t.Run("provider error not retried", func(t *testing.T) {
		intents := &fakeIntents{getFn: func(int, string) (*stripe.PaymentIntent, error) {
			return nil, &stripe.Error{HTTPStatusCode: http.StatusInternalServerError}
		}}
		_, err := newTestGateway(intents).GetPaymentIntent(context.Background(), "pi_9")
		if !errors.Is(err, domainErrors.ErrUpstream) || intents.getCalls != 1 {
			t.Fatalf("expected single upstream failure, calls=%d err=%v", intents.getCalls, err)
		}
	})

	t.Run("unknown intent", func(t *testing.T) {
		intents := &fakeIntents{getFn: func(int, string) (*stripe.PaymentIntent, error) {
			return nil, &stripe.Error{HTTPStatusCode: http.StatusNotFound}
		}}
		_, err := newTestGateway(intents).GetPaymentIntent(context.Background(), "pi_missing")
		if !errors.Is(err, domainErrors.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("empty id", func(t *testing.T) {
		if _, err := newTestGateway(&fakeIntents{}).GetPaymentIntent(context.Background(), " "); !errors.Is(err, domainErrors.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestParseWebhook(t *testing.T) {
	gateway := newTestGateway(&fakeIntents{})

	cases := []struct {
		name      string
		eventType string
		want      model.PaymentEventType
		orderID   string
	}{
		{"succeeded", "payment_intent.succeeded", model.PaymentEventSucceeded, "o1"},
		{"failed", "payment_intent.payment_failed", model.PaymentEventFailed, "o1"},
		{"missing metadata", "payment_intent.succeeded", model.PaymentEventSucceeded, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := eventPayload("evt_1", tc.eventType, "pi_1", tc.orderID)
			event, err := gateway.ParseWebhook(payload, signedHeader(payload, testWebhookSecret))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if event.ID != "evt_1" || event.Type != tc.want || event.RawType != tc.eventType {
				t.Fatalf("unexpected event %+v", event)
			}
			if event.PaymentIntentID != "pi_1" || event.OrderID != tc.orderID {
				t.Fatalf("unexpected references %+v", event)
			}
		})
	}

	t.Run("other type", func(t *testing.T) {
		payload := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)
		event, err := gateway.ParseWebhook(payload, signedHeader(payload, testWebhookSecret))
		if err != nil || event.Type != model.PaymentEventOther || event.OrderID != "" {
			t.Fatalf("unexpected event %+v err=%v", event, err)
		}
	})
}

func TestParseWebhookRejectsBadSignatures(t *testing.T) {
	gateway := newTestGateway(&fakeIntents{})
	payload := eventPayload("evt_1", "payment_intent.succeeded", "pi_1", "o1")

	cases := map[string]string{
		"missing header": "",
		"wrong secret":   signedHeader(payload, "whsec_other"),
		"garbage header": "t=abc,v1=zzz",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := gateway.ParseWebhook(payload, header); !errors.Is(err, domainErrors.ErrSignatureInvalid) {
				t.Fatalf("expected signature error, got %v", err)
			}
		})
	}

	t.Run("tampered payload", func(t *testing.T) {
		header := signedHeader(payload, testWebhookSecret)
		tampered := bytes.Replace(payload, []byte(`"o1"`), []byte(`"o2"`), 1)
		if _, err := gateway.ParseWebhook(tampered, header); !errors.Is(err, domainErrors.ErrSignatureInvalid) {
			t.Fatalf("expected signature error, got %v", err)
		}
	})
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"20.00", "usd", 2000},
		{"10.125", "usd", 1013},
		{"0.005", "usd", 1},
		{"19.994", "eur", 1999},
		{"1500", "JPY", 1500},
		{"1500.5", "jpy", 1501},
		{"1.2345", "kwd", 1235},
	}
	for _, tc := range cases {
		got, err := ToMinorUnits(decimal.RequireFromString(tc.amount), tc.currency)
		if err != nil || got != tc.want {
			t.Errorf("ToMinorUnits(%s, %s) = %d, %v; want %d", tc.amount, tc.currency, got, err, tc.want)
		}
	}

	for _, amount := range []string{"0", "0.004", "-1"} {
		if _, err := ToMinorUnits(decimal.RequireFromString(amount), "usd"); !errors.Is(err, domainErrors.ErrValidation) {
			t.Errorf("expected validation error for %s, got %v", amount, err)
		}
	}
}

func TestIdempotencyKey(t *testing.T) {
	if got := IdempotencyKey("o1", 1); got != "order:o1:1" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestLeveledLoggerForwardsToSlog(t *testing.T) {
	var buf bytes.Buffer
	l := &leveledLogger{logger: slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("error %d", 4)

	out := buf.String()
	for _, want := range []string{"debug 1", "info 2", "warn 3", "error 4", `"component":"stripe"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}
