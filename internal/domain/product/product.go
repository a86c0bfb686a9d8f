package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist or has
// been soft-deleted.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
	Deleted     bool
	CreatedAt   time.Time
}

// Repository defines persistence operations for the product catalog.
// Read methods never return soft-deleted products.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	SoftDelete(ctx context.Context, id int64) error
}

// PriceSource is the authoritative per-product price lookup used when
// recomputing order totals. Lookups reflect catalog truth at call time and
// fail with ErrNotFound for unknown or soft-deleted products, so an order
// referencing such a product is rejected rather than priced at zero.
type PriceSource interface {
	UnitPrice(ctx context.Context, id int64) (decimal.Decimal, error)
}
