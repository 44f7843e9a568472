package dto

// CreatePaymentIntentRequest starts a payment for an order.
type CreatePaymentIntentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

// PaymentIntentResponse carries what the browser needs to confirm a payment.
type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// PaymentStatusResponse reports provider state. Amount is in minor units.
type PaymentStatusResponse struct {
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// WebhookResponse acknowledges a provider notification.
type WebhookResponse struct {
	Received bool `json:"received"`
}
