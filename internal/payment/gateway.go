// Package payment wraps the Razorpay payment gateway: remote order
// creation, callback signature verification, and receipt generation.
package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is the only currency the storefront charges in.
const Currency = "INR"

// GatewayOrder is the remote gateway-side record representing an intent to
// collect a specific amount. It is distinct from the storefront's own
// persisted order, which does not yet exist when this is created.
type GatewayOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
}

// Gateway creates remote payment orders. Creation failures are not retried;
// the client must restart checkout.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*GatewayOrder, error)
}

// GatewayError wraps a network or API failure from the payment gateway.
// It is distinct from the business-rule errors in the order domain so the
// caller can surface it as an upstream (5xx) failure.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %v", e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// MinorUnits converts a decimal currency amount to the gateway's integer
// minor-unit representation (paise for INR): round(amount * 100).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
