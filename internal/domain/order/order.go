package order

import (
	"context"
	"net/mail"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a single product/quantity pair inside an order request.
type LineItem struct {
	ProductID int64 `json:"id"`
	Quantity  int   `json:"quantity"`
}

// Item is a persisted order line with the product name and unit price that
// were in effect when the payment was verified.
type Item struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order is a durable customer order. A row exists only for orders whose
// payment callback passed signature and total verification.
type Order struct {
	ID           int64
	CustomerName string
	Email        string
	PhoneNumber  string
	Address      string
	Items        []Item
	Total        decimal.Decimal
	Status       Status
	PaymentID    string
	CreatedAt    time.Time
}

// Draft is a client-submitted candidate order. It is never persisted; it
// exists only for the duration of a checkout or verification request.
type Draft struct {
	CustomerName string
	Email        string
	PhoneNumber  string
	Address      string
	Items        []LineItem
	ClaimedTotal decimal.Decimal
}

// Validate checks the draft against the request contract: name of at least
// 2 characters, a parseable email address, an address of at least 10
// characters, a non-empty phone number, and at least one line item. Line
// item quantities are validated by the verifier.
func (d *Draft) Validate() error {
	if len(d.CustomerName) < 2 {
		return &ValidationError{Field: "customerName"}
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return &ValidationError{Field: "email"}
	}
	if len(d.Address) < 10 {
		return &ValidationError{Field: "address"}
	}
	if d.PhoneNumber == "" {
		return &ValidationError{Field: "phoneNumber"}
	}
	if len(d.Items) == 0 {
		return ErrEmptyItems
	}
	return nil
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create inserts the order in a single statement and fills in the
	// generated ID and creation timestamp.
	Create(ctx context.Context, o *Order) error
	List(ctx context.Context) ([]Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}
