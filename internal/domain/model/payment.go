package model

// PaymentEventType is the normalized kind of a provider event.
type PaymentEventType string

const (
	PaymentEventSucceeded PaymentEventType = "succeeded"
	PaymentEventFailed    PaymentEventType = "failed"
	PaymentEventOther     PaymentEventType = "other"
)

// Intent statuses reported by the provider that the service acts upon.
const (
	IntentStatusSucceeded = "succeeded"
	IntentStatusCanceled  = "canceled"
)

// PaymentIntent is the provider-side payment object created for an order.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	OrderID      string
}

// PaymentEvent is a verified provider notification.
type PaymentEvent struct {
	ID              string
	Type            PaymentEventType
	RawType         string
	PaymentIntentID string
	OrderID         string
}

// DownloadGrant is a time-limited link to a purchased file.
type DownloadGrant struct {
	URL         string
	ProductName string
	ExpiresIn   int
}
