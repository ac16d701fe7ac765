package payment

import "context"

type Gateway interface {
	// CreateOrder registers the charge with the gateway and returns its
	// order id, kept locally for correlation and idempotency checks.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
	// FetchPayments lists every charge attempt against a gateway order,
	// used by reconciliation to re-derive payment truth.
	FetchPayments(ctx context.Context, gatewayOrderID string) ([]Payment, error)
}
