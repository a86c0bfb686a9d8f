package notify

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/ambarika/storefront/internal/domain/order"
)

var _ order.Notifier = (*Dispatcher)(nil)

// Dispatcher composes and sends order confirmation email through a Mailer.
type Dispatcher struct {
	mailer Mailer
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(mailer Mailer) *Dispatcher {
	return &Dispatcher{mailer: mailer}
}

// OrderConfirmation sends the confirmation for a freshly persisted order.
func (d *Dispatcher) OrderConfirmation(ctx context.Context, o *order.Order) error {
	names := make([]string, len(o.Items))
	for i, item := range o.Items {
		names[i] = item.Name
	}

	body, err := ComposeConfirmation(Confirmation{
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		Total:        o.Total.StringFixed(2),
		ProductNames: names,
	})
	if err != nil {
		return err
	}

	if err := d.mailer.Send(ctx, o.Email, Subject, body); err != nil {
		return errors.Wrap(err, "send confirmation")
	}
	return nil
}
