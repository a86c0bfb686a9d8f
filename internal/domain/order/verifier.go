package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ambarika/storefront/internal/domain/product"
)

// Verifier recomputes order totals against the authoritative price ledger.
//
// The same verification runs twice in the payment workflow: once before the
// gateway order is created (so the charge is sized from catalog prices, not
// the client's claim) and once after the payment callback (so items mutated
// between the two calls are caught even when the signature is valid).
type Verifier struct {
	prices product.PriceSource
}

// NewVerifier creates a Verifier backed by the given price source.
func NewVerifier(prices product.PriceSource) *Verifier {
	return &Verifier{prices: prices}
}

// VerifyTotal resolves each line item's unit price and accumulates
// unit_price * quantity in decimal arithmetic, then compares the sum
// against claimedTotal for exact value equality. The claim is never
// rounded: a total that merely rounds to the computed sum is rejected.
//
// It fails closed: the first non-positive quantity or unresolvable product
// aborts verification. On success it returns the priced items, ready for
// persistence, and the computed total.
func (v *Verifier) VerifyTotal(ctx context.Context, items []LineItem, claimedTotal decimal.Decimal) ([]Item, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, ErrEmptyItems
	}

	priced := make([]Item, len(items))
	sum := decimal.Zero
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, decimal.Zero, &InvalidQuantityError{ProductID: item.ProductID}
		}

		price, err := v.prices.UnitPrice(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, decimal.Zero, &ProductNotFoundError{ProductID: item.ProductID}
			}
			return nil, decimal.Zero, errors.Wrapf(err, "price lookup for product %d", item.ProductID)
		}

		priced[i] = Item{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: price,
		}
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	// Catalog prices carry 2 decimal places and quantities are integers, so
	// the sum is already exact; rounding only normalizes the exponent.
	sum = sum.Round(2)
	if !sum.Equal(claimedTotal) {
		return nil, decimal.Zero, &PriceMismatchError{Claimed: claimedTotal, Computed: sum}
	}

	return priced, sum, nil
}
