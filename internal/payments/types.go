package payments

import "context"

// PaymentIntent is the slice of Stripe's payment intent object the gateway
// cares about.
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       int64             `json:"amount"` // cents
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Created      int64             `json:"created"` // unix seconds
	Metadata     map[string]string `json:"metadata"`
}

// Gateway creates authorized-but-uncaptured charges. The sequencer depends on
// this contract only; tests substitute a fake.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency, description string, metadata map[string]string) (*PaymentIntent, error)
}

// WebhookEvent is the envelope Stripe posts to the webhook endpoint.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object WebhookIntent `json:"object"`
	} `json:"data"`
}

// WebhookIntent is the payment intent as it appears inside a webhook event.
type WebhookIntent struct {
	ID               string            `json:"id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Created          int64             `json:"created"`
	Metadata         map[string]string `json:"metadata"`
	ReceiptEmail     string            `json:"receipt_email"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// Webhook event types the gateway reacts to.
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
)
