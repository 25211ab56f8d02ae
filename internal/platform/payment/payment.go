// Package payment wraps the Razorpay order/refund API behind a small
// gateway interface and verifies checkout signatures.
package payment

import "context"

// Order is a payment order created with the gateway. Amount is in the
// currency's minor unit (paise for INR).
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// Gateway is the payment provider used for booking consultations.
type Gateway interface {
	// CreateOrder registers an order for the given amount in minor
	// units and returns it.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (*Order, error)
	// Refund refunds a captured payment in full and returns the
	// refund id.
	Refund(ctx context.Context, paymentID string, amount int64) (string, error)
}
