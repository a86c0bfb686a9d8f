package payment

import (
	"context"

	"github.com/go-faster/errors"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

var _ Gateway = (*RazorpayGateway)(nil)

// RazorpayGateway implements Gateway using the Razorpay REST SDK.
type RazorpayGateway struct {
	client *razorpay.Client
	keyID  string
}

// NewRazorpayGateway creates a gateway client with the given key pair.
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
	}
}

// KeyID returns the public key id the browser checkout widget needs.
func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// CreateOrder creates a remote Razorpay order for the given amount. The
// SDK call carries no context, so it runs in a goroutine and the result is
// abandoned if ctx expires first; a timed-out creation is a failure, never
// retried here.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":   MinorUnits(amount),
		"currency": Currency,
		"receipt":  receipt,
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		body, err := g.client.Order.Create(data, nil)
		ch <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &GatewayError{Err: ctx.Err()}
	case res := <-ch:
		if res.err != nil {
			return nil, &GatewayError{Err: res.err}
		}
		id, ok := res.body["id"].(string)
		if !ok || id == "" {
			return nil, &GatewayError{Err: errors.New("order response missing id")}
		}
		return &GatewayOrder{
			ID:          id,
			AmountMinor: MinorUnits(amount),
			Currency:    Currency,
		}, nil
	}
}
