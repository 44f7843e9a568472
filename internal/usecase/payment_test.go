package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/domain/model"
	testhelpers "github.com/polkiloo/archstore/internal/test"
)

type paymentFixture struct {
	orders   *testhelpers.OrderRepositoryStub
	gateway  *testhelpers.GatewayStub
	notifier *testhelpers.NotifierStub
	events   *testhelpers.EventCacheStub
	payments *PaymentUseCase
	order    *model.Order
}

func newPaymentFixture(t *testing.T, maxAttempts int) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		orders:   testhelpers.NewOrderRepositoryStub(),
		gateway:  &testhelpers.GatewayStub{},
		notifier: &testhelpers.NotifierStub{},
		events:   &testhelpers.EventCacheStub{},
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	f.payments = NewPaymentUseCase(f.orders, f.gateway, f.notifier, f.events, maxAttempts, logger)

	order, err := NewOrderUseCase(f.orders).CreateOrder(context.Background(), "a@b.co", "Ann", sampleItems())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	f.order = order
	return f
}

func (f *paymentFixture) deliver(event *model.PaymentEvent) error {
	f.gateway.ParseFn = func([]byte, string) (*model.PaymentEvent, error) { return event, nil }
	return f.payments.HandleWebhook(context.Background(), []byte("{}"), "sig")
}

func succeeded(eventID, orderID, intentID string) *model.PaymentEvent {
	return &model.PaymentEvent{ID: eventID, Type: model.PaymentEventSucceeded, RawType: "payment_intent.succeeded", OrderID: orderID, PaymentIntentID: intentID}
}

func failed(eventID, orderID, intentID string) *model.PaymentEvent {
	return &model.PaymentEvent{ID: eventID, Type: model.PaymentEventFailed, RawType: "payment_intent.payment_failed", OrderID: orderID, PaymentIntentID: intentID}
}

func TestInitiatePaymentAttachesIntent(t *testing.T) {
	f := newPaymentFixture(t, 5)

	intent, err := f.payments.InitiatePayment(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent.ClientSecret == "" || intent.ID == "" {
		t.Fatalf("expected client secret and intent id, got %+v", intent)
	}

	stored := f.orders.Get(f.order.ID)
	if stored.PaymentIntentID == nil || *stored.PaymentIntentID != intent.ID {
		t.Fatalf("expected intent %s attached, got %v", intent.ID, stored.PaymentIntentID)
	}
	if stored.PaymentAttempts != 1 || stored.Status != model.OrderStatusPending {
		t.Fatalf("unexpected stored order %+v", stored)
	}
}

func TestInitiatePaymentOverwritesPreviousIntent(t *testing.T) {
	f := newPaymentFixture(t, 5)

	first, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)
	second, err := f.payments.InitiatePayment(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected a fresh intent")
	}
	if got := *f.orders.Get(f.order.ID).PaymentIntentID; got != second.ID {
		t.Fatalf("expected latest intent %s, got %s", second.ID, got)
	}
}

func TestInitiatePaymentErrors(t *testing.T) {
	t.Run("missing order", func(t *testing.T) {
		f := newPaymentFixture(t, 5)
		if _, err := f.payments.InitiatePayment(context.Background(), "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("completed order", func(t *testing.T) {
		f := newPaymentFixture(t, 5)
		f.orders.Get(f.order.ID).Status = model.OrderStatusCompleted
		if _, err := f.payments.InitiatePayment(context.Background(), f.order.ID); !errors.Is(err, domainErrors.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if len(f.gateway.Created) != 0 {
			t.Fatal("no intent must be created for a paid order")
		}
	})

	t.Run("attempts exhausted", func(t *testing.T) {
		f := newPaymentFixture(t, 2)
		for i := 0; i < 2; i++ {
			if _, err := f.payments.InitiatePayment(context.Background(), f.order.ID); err != nil {
				t.Fatalf("attempt %d: %v", i+1, err)
			}
		}
		if _, err := f.payments.InitiatePayment(context.Background(), f.order.ID); !errors.Is(err, domainErrors.ErrPaymentAttemptsExceeded) {
			t.Fatalf("expected attempts exceeded, got %v", err)
		}
	})

	t.Run("gateway failure", func(t *testing.T) {
		f := newPaymentFixture(t, 5)
		f.gateway.CreateFn = func(context.Context, *model.Order) (*model.PaymentIntent, error) {
			return nil, domainErrors.ErrUpstream
		}
		if _, err := f.payments.InitiatePayment(context.Background(), f.order.ID); !errors.Is(err, domainErrors.ErrUpstream) {
			t.Fatalf("expected upstream error, got %v", err)
		}
		if f.orders.Get(f.order.ID).PaymentIntentID != nil {
			t.Fatal("intent must not be attached after gateway failure")
		}
	})

	t.Run("settled concurrently", func(t *testing.T) {
		f := newPaymentFixture(t, 5)
		f.gateway.CreateFn = func(_ context.Context, order *model.Order) (*model.PaymentIntent, error) {
			f.orders.Get(order.ID).Status = model.OrderStatusCompleted
			return &model.PaymentIntent{ID: "pi_late", ClientSecret: "s"}, nil
		}
		if _, err := f.payments.InitiatePayment(context.Background(), f.order.ID); !errors.Is(err, domainErrors.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})
}

func TestInitiatePaymentRetriesFailedOrder(t *testing.T) {
	f := newPaymentFixture(t, 5)
	first, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)
	if err := f.deliver(failed("evt_f", f.order.ID, first.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.orders.Get(f.order.ID).Status != model.OrderStatusFailed {
		t.Fatal("expected failed order")
	}

	if _, err := f.payments.InitiatePayment(context.Background(), f.order.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.orders.Get(f.order.ID).Status != model.OrderStatusPending {
		t.Fatal("expected explicit retry to reset the order to pending")
	}
}

func TestHandleWebhookSucceeded(t *testing.T) {
	f := newPaymentFixture(t, 5)
	intent, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)

	if err := f.deliver(succeeded("evt_1", f.order.ID, intent.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := f.orders.Get(f.order.ID)
	if stored.Status != model.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	if f.notifier.Count() != 1 {
		t.Fatalf("expected one confirmation, got %d", f.notifier.Count())
	}
	if !f.events.Events["evt_1"] {
		t.Fatal("expected event to be remembered")
	}
}

func TestHandleWebhookDuplicateSendsOneEmail(t *testing.T) {
	f := newPaymentFixture(t, 5)
	intent, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)

	for i := 0; i < 3; i++ {
		if err := f.deliver(succeeded("evt_1", f.order.ID, intent.ID)); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}
	if f.notifier.Count() != 1 {
		t.Fatalf("expected exactly one confirmation, got %d", f.notifier.Count())
	}
}

func TestHandleWebhookDuplicateWithoutCache(t *testing.T) {
	f := newPaymentFixture(t, 5)
	f.events.SeenErr = errors.New("redis down")
	intent, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)

	for i := 0; i < 2; i++ {
		if err := f.deliver(succeeded("evt_1", f.order.ID, intent.ID)); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}
	if f.notifier.Count() != 1 {
		t.Fatalf("expected exactly one confirmation, got %d", f.notifier.Count())
	}
}

func TestHandleWebhookCompletedIsTerminal(t *testing.T) {
	f := newPaymentFixture(t, 5)
	intent, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)

	if err := f.deliver(succeeded("evt_1", f.order.ID, intent.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.deliver(failed("evt_2", f.order.ID, intent.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.orders.Get(f.order.ID).Status != model.OrderStatusCompleted {
		t.Fatal("completed order must not regress")
	}
}

func TestHandleWebhookStaleFailureIgnored(t *testing.T) {
	f := newPaymentFixture(t, 5)
	first, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)
	second, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)

	if err := f.deliver(failed("evt_old", f.order.ID, first.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := f.orders.Get(f.order.ID)
	if stored.Status != model.OrderStatusPending || *stored.PaymentIntentID != second.ID {
		t.Fatalf("failure of a superseded intent must be ignored, got %+v", stored)
	}
}

func TestHandleWebhookSucceededAfterDeclineOnSameIntent(t *testing.T) {
	f := newPaymentFixture(t, 5)
	intent, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)
	if err := f.deliver(failed("evt_1", f.order.ID, intent.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.orders.Get(f.order.ID).Status != model.OrderStatusFailed {
		t.Fatal("expected failed order after decline")
	}
	if err := f.deliver(succeeded("evt_2", f.order.ID, intent.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.deliver(succeeded("evt_3", f.order.ID, intent.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := f.orders.Get(f.order.ID)
	if stored.Status != model.OrderStatusCompleted {
		t.Fatalf("expected completed order, got %s", stored.Status)
	}
	if stored.PaymentIntentID == nil || *stored.PaymentIntentID != intent.ID {
		t.Fatalf("unexpected intent %v", stored.PaymentIntentID)
	}
	if f.notifier.Count() != 1 {
		t.Fatalf("expected one confirmation, got %d", f.notifier.Count())
	}
}

func TestHandleWebhookSucceededOfReplacedIntentIgnored(t *testing.T) {
	f := newPaymentFixture(t, 5)
	first, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)
	if err := f.deliver(failed("evt_1", f.order.ID, first.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.payments.InitiatePayment(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if err := f.deliver(failed("evt_2", f.order.ID, second.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.deliver(succeeded("evt_3", f.order.ID, first.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := f.orders.Get(f.order.ID)
	if stored.Status != model.OrderStatusFailed {
		t.Fatalf("replaced intent must not complete the order, got %s", stored.Status)
	}
	if *stored.PaymentIntentID != second.ID {
		t.Fatalf("expected current intent %s, got %s", second.ID, *stored.PaymentIntentID)
	}
	if f.notifier.Count() != 0 {
		t.Fatal("no confirmation expected")
	}
}

func TestHandleWebhookAcknowledgesWithoutWork(t *testing.T) {
	cases := []struct {
		name  string
		event func(orderID string) *model.PaymentEvent
	}{
		{"other type", func(string) *model.PaymentEvent {
			return &model.PaymentEvent{ID: "evt_o", Type: model.PaymentEventOther, RawType: "charge.refunded"}
		}},
		{"missing metadata", func(string) *model.PaymentEvent { return succeeded("evt_m", "", "pi_x") }},
		{"unknown order", func(string) *model.PaymentEvent { return succeeded("evt_u", "00000000-0000-0000-0000-000000000000", "pi_x") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPaymentFixture(t, 5)
			if err := f.deliver(tc.event(f.order.ID)); err != nil {
				t.Fatalf("expected acknowledgement, got %v", err)
			}
			if f.orders.Get(f.order.ID).Status != model.OrderStatusPending {
				t.Fatal("order must not change")
			}
			if f.notifier.Count() != 0 {
				t.Fatal("no confirmation expected")
			}
		})
	}
}

func TestHandleWebhookInvalidSignature(t *testing.T) {
	f := newPaymentFixture(t, 5)
	f.gateway.ParseFn = func([]byte, string) (*model.PaymentEvent, error) {
		return nil, domainErrors.ErrSignatureInvalid
	}
	if err := f.payments.HandleWebhook(context.Background(), []byte("{}"), "bad"); !errors.Is(err, domainErrors.ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
	if f.orders.Get(f.order.ID).Status != model.OrderStatusPending {
		t.Fatal("order must not change")
	}
}

func TestHandleWebhookStorageErrorNotRemembered(t *testing.T) {
	f := newPaymentFixture(t, 5)
	intent, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)
	f.orders.Err = errors.New("db down")

	if err := f.deliver(succeeded("evt_1", f.order.ID, intent.ID)); err == nil {
		t.Fatal("expected storage error so the provider retries")
	}
	if f.events.Events["evt_1"] {
		t.Fatal("failed event must not be remembered")
	}
}

func TestHandleWebhookNotifierErrorStillSettles(t *testing.T) {
	f := newPaymentFixture(t, 5)
	f.notifier.Err = errors.New("smtp down")
	intent, _ := f.payments.InitiatePayment(context.Background(), f.order.ID)

	if err := f.deliver(succeeded("evt_1", f.order.ID, intent.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.orders.Get(f.order.ID).Status != model.OrderStatusCompleted {
		t.Fatal("expected completed order")
	}
}

func TestPaymentStatus(t *testing.T) {
	f := newPaymentFixture(t, 5)
	f.gateway.GetFn = func(_ context.Context, id string) (*model.PaymentIntent, error) {
		return &model.PaymentIntent{ID: id, Status: "succeeded", Amount: 2000, Currency: "usd"}, nil
	}
	intent, err := f.payments.PaymentStatus(context.Background(), "pi_1")
	if err != nil || intent.Amount != 2000 || intent.Status != "succeeded" {
		t.Fatalf("unexpected intent %+v err=%v", intent, err)
	}
}

func TestReconcile(t *testing.T) {
	cases := []struct {
		name    string
		status  string
		want    model.OrderStatus
		applied bool
		emails  int
	}{
		{"succeeded", model.IntentStatusSucceeded, model.OrderStatusCompleted, true, 1},
		{"canceled", model.IntentStatusCanceled, model.OrderStatusFailed, true, 0},
		{"processing", "processing", model.OrderStatusPending, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPaymentFixture(t, 5)
			if _, err := f.payments.InitiatePayment(context.Background(), f.order.ID); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			f.gateway.GetFn = func(_ context.Context, id string) (*model.PaymentIntent, error) {
				return &model.PaymentIntent{ID: id, Status: tc.status}, nil
			}

			applied, err := f.payments.Reconcile(context.Background(), *f.orders.Get(f.order.ID))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if applied != tc.applied {
				t.Fatalf("expected applied=%v, got %v", tc.applied, applied)
			}
			if got := f.orders.Get(f.order.ID).Status; got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			if f.notifier.Count() != tc.emails {
				t.Fatalf("expected %d emails, got %d", tc.emails, f.notifier.Count())
			}
		})
	}
}

func TestReconcileSkipsOrderWithoutIntent(t *testing.T) {
	f := newPaymentFixture(t, 5)
	f.gateway.GetFn = func(context.Context, string) (*model.PaymentIntent, error) {
		t.Fatal("gateway must not be called")
		return nil, nil
	}
	if applied, err := f.payments.Reconcile(context.Background(), *f.order); err != nil || applied {
		t.Fatalf("expected no-op, got applied=%v err=%v", applied, err)
	}
}

func TestReconcileGatewayError(t *testing.T) {
	f := newPaymentFixture(t, 5)
	_, _ = f.payments.InitiatePayment(context.Background(), f.order.ID)
	f.gateway.GetFn = func(context.Context, string) (*model.PaymentIntent, error) {
		return nil, domainErrors.ErrUpstream
	}
	if _, err := f.payments.Reconcile(context.Background(), *f.orders.Get(f.order.ID)); !errors.Is(err, domainErrors.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestStaleOrders(t *testing.T) {
	f := newPaymentFixture(t, 5)
	f.orders.Stale = []model.Order{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	orders, err := f.payments.StaleOrders(context.Background(), 0, 2)
	if err != nil || len(orders) != 2 {
		t.Fatalf("expected two orders, got %d err=%v", len(orders), err)
	}
}
