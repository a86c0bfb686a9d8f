package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/ambarika/storefront/internal/domain/product"
	"github.com/ambarika/storefront/internal/payment"
)

// CallbackVerifier authenticates payment callback signatures.
type CallbackVerifier interface {
	Verify(gatewayOrderID, paymentID, signature string) bool
}

// ReceiptSource produces receipt references for gateway order creation.
type ReceiptSource interface {
	Generate() (string, error)
}

// Notifier sends the post-payment confirmation message. Implementations
// are best-effort; the service never fails an order on a notify error.
type Notifier interface {
	OrderConfirmation(ctx context.Context, o *Order) error
}

// Callback is the payload of a completed gateway payment returned by the
// client, together with the order metadata to re-verify and persist.
type Callback struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
	Draft          Draft
}

// Service orchestrates the checkout and payment-confirmation workflow.
type Service struct {
	verifier *Verifier
	products product.Repository
	orders   Repository
	gateway  payment.Gateway
	sigs     CallbackVerifier
	receipts ReceiptSource
	notify   Notifier
}

// NewService creates an order Service with the required dependencies.
func NewService(
	verifier *Verifier,
	products product.Repository,
	orders Repository,
	gateway payment.Gateway,
	sigs CallbackVerifier,
	receipts ReceiptSource,
	notify Notifier,
) *Service {
	return &Service{
		verifier: verifier,
		products: products,
		orders:   orders,
		gateway:  gateway,
		sigs:     sigs,
		receipts: receipts,
		notify:   notify,
	}
}

// Checkout validates the draft, recomputes its total against the price
// ledger, and creates a remote gateway order sized from the verified
// amount. Nothing is persisted: a failed or abandoned payment leaves no
// order record.
func (s *Service) Checkout(ctx context.Context, draft Draft) (*payment.GatewayOrder, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	_, total, err := s.verifier.VerifyTotal(ctx, draft.Items, draft.ClaimedTotal)
	if err != nil {
		return nil, err
	}

	receipt, err := s.receipts.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "generate receipt")
	}

	gw, err := s.gateway.CreateOrder(ctx, total, receipt)
	if err != nil {
		return nil, err
	}
	return gw, nil
}

// ConfirmPayment verifies the callback signature, re-verifies the metadata
// total against current catalog prices, and only then persists the order
// with status Pending and the gateway-issued payment id. The confirmation
// email is dispatched best-effort after the order is durable.
func (s *Service) ConfirmPayment(ctx context.Context, cb Callback) (*Order, error) {
	if !s.sigs.Verify(cb.GatewayOrderID, cb.PaymentID, cb.Signature) {
		return nil, payment.ErrSignatureMismatch
	}

	if err := cb.Draft.Validate(); err != nil {
		return nil, err
	}

	// Second verification pass: catches line items mutated between gateway
	// order creation and payment completion.
	items, total, err := s.verifier.VerifyTotal(ctx, cb.Draft.Items, cb.Draft.ClaimedTotal)
	if err != nil {
		return nil, err
	}

	for i := range items {
		p, err := s.products.GetByID(ctx, items[i].ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, &ProductNotFoundError{ProductID: items[i].ProductID}
			}
			return nil, errors.Wrapf(err, "get product %d", items[i].ProductID)
		}
		items[i].Name = p.Name
	}

	o := &Order{
		CustomerName: cb.Draft.CustomerName,
		Email:        cb.Draft.Email,
		PhoneNumber:  cb.Draft.PhoneNumber,
		Address:      cb.Draft.Address,
		Items:        items,
		Total:        total,
		Status:       StatusPending,
		PaymentID:    cb.PaymentID,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.notify.OrderConfirmation(ctx, o); err != nil {
		// The order is financially committed; a notification failure must
		// not roll it back or fail the request.
		zctx.From(ctx).Warn("Order confirmation email failed",
			zap.Int64("order_id", o.ID),
			zap.Error(err),
		)
	}

	return o, nil
}

// SetStatus applies an administrative status change, enforcing the state
// machine. Reapplying the current status is a no-op success.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if o.Status == status {
		return nil
	}
	if !o.Status.CanTransition(status) {
		return &TransitionError{From: o.Status, To: status}
	}

	return s.orders.UpdateStatus(ctx, id, status)
}

// List returns all persisted orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}
