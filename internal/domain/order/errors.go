package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for order validation.
var (
	ErrEmptyItems = fmt.Errorf("items required")
	ErrNotFound   = fmt.Errorf("order not found")
)

// ValidationError indicates a malformed or incomplete order draft. The
// field name is logged server-side; clients receive a generic message.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order data: field %s", e.Field)
}

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d", e.ProductID)
}

// ProductNotFoundError indicates a line item referencing a product the
// price ledger cannot resolve. Verification fails on the first such item;
// a deleted or unknown product is never silently priced at zero.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// PriceMismatchError indicates the server-recomputed total disagrees with
// the client-claimed total.
type PriceMismatchError struct {
	Claimed  decimal.Decimal
	Computed decimal.Decimal
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("order total mismatch: claimed %s, computed %s",
		e.Claimed.StringFixed(2), e.Computed.StringFixed(2))
}
