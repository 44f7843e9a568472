package test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/polkiloo/archstore/internal/domain/model"
)

// GatewayStub simulates the payment provider.
type GatewayStub struct {
	mu sync.Mutex

	CreateFn func(context.Context, *model.Order) (*model.PaymentIntent, error)
	GetFn    func(context.Context, string) (*model.PaymentIntent, error)
	ParseFn  func([]byte, string) (*model.PaymentEvent, error)

	Created []string
	next    int
}

// CreatePaymentIntent returns sequential intent ids unless CreateFn is set.
func (g *GatewayStub) CreatePaymentIntent(ctx context.Context, order *model.Order) (*model.PaymentIntent, error) {
	if g.CreateFn != nil {
		return g.CreateFn(ctx, order)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	id := fmt.Sprintf("pi_%d", g.next)
	g.Created = append(g.Created, id)
	return &model.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		OrderID:      order.ID,
	}, nil
}

// GetPaymentIntent delegates to GetFn or reports a processing intent.
func (g *GatewayStub) GetPaymentIntent(ctx context.Context, id string) (*model.PaymentIntent, error) {
	if g.GetFn != nil {
		return g.GetFn(ctx, id)
	}
	return &model.PaymentIntent{ID: id, Status: "processing"}, nil
}

// ParseWebhook delegates to ParseFn.
func (g *GatewayStub) ParseWebhook(payload []byte, signature string) (*model.PaymentEvent, error) {
	if g.ParseFn != nil {
		return g.ParseFn(payload, signature)
	}
	return &model.PaymentEvent{Type: model.PaymentEventOther}, nil
}

// PresignCall records a presign request.
type PresignCall struct {
	Key     string
	Expires time.Duration
}

// PresignerStub records requested keys.
type PresignerStub struct {
	mu    sync.Mutex
	Calls []PresignCall
	Err   error
}

// PresignGet returns a fake URL for key.
func (p *PresignerStub) PresignGet(_ context.Context, key string, expires time.Duration) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, PresignCall{Key: key, Expires: expires})
	if p.Err != nil {
		return "", p.Err
	}
	return fmt.Sprintf("https://files.test/%s?expires=%d", key, int(expires.Seconds())), nil
}

// NotifierStub counts confirmation messages.
type NotifierStub struct {
	mu   sync.Mutex
	Sent []string
	Err  error
}

// SendOrderConfirmation records the order id.
func (n *NotifierStub) SendOrderConfirmation(_ context.Context, order *model.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, order.ID)
	return nil
}

// Count returns the number of delivered messages.
func (n *NotifierStub) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Sent)
}

// EventCacheStub is an in-memory event cache.
type EventCacheStub struct {
	mu      sync.Mutex
	Events  map[string]bool
	SeenErr error
}

// Seen reports whether the event was remembered.
func (c *EventCacheStub) Seen(_ context.Context, eventID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SeenErr != nil {
		return false, c.SeenErr
	}
	return c.Events[eventID], nil
}

// Remember stores the event id.
func (c *EventCacheStub) Remember(_ context.Context, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Events == nil {
		c.Events = make(map[string]bool)
	}
	c.Events[eventID] = true
	return nil
}
