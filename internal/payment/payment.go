// Package payment talks to the external payment provider. Orders are
// created remotely before seats are handed to the customer; the returned
// provider reference is what the capture webhook later carries back.
package payment

import "context"

// Bridge creates orders at the payment provider.
type Bridge interface {
	// CreateOrder registers an order for the given amount and returns the
	// provider-side order reference. An empty reference means the call
	// failed even if err is nil-adjacent on the wire.
	CreateOrder(ctx context.Context, amountCents int64, currency string) (string, error)
}
