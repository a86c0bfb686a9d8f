package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ambarika/storefront/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, description, price, category, image_url, is_deleted, created_at
		FROM products WHERE NOT is_deleted ORDER BY id`

	listProductsByCategorySQL = `SELECT id, name, description, price, category, image_url, is_deleted, created_at
		FROM products WHERE NOT is_deleted AND category = $1 ORDER BY id`

	getProductByIDSQL = `SELECT id, name, description, price, category, image_url, is_deleted, created_at
		FROM products WHERE NOT is_deleted AND id = $1`

	getUnitPriceSQL = `SELECT price FROM products WHERE NOT is_deleted AND id = $1`

	createProductSQL = `INSERT INTO products (name, description, price, category, image_url)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, category = $5, image_url = $6
		WHERE NOT is_deleted AND id = $1`

	softDeleteProductSQL = `UPDATE products SET is_deleted = TRUE WHERE NOT is_deleted AND id = $1`
)

var (
	_ product.Repository  = (*ProductRepository)(nil)
	_ product.PriceSource = (*ProductRepository)(nil)
)

// ProductRepository implements the catalog repository and the price ledger
// backed by PostgreSQL. Every query excludes soft-deleted rows, so deleted
// products are neither listed nor purchasable.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all live products ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListByCategory returns live products in the given category.
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsByCategorySQL, category)
	if err != nil {
		return nil, fmt.Errorf("listing products in %q: %w", category, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single live product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// UnitPrice implements product.PriceSource. It reads the current price
// directly from the catalog row; there is no cache between this lookup and
// financial computation.
func (r *ProductRepository) UnitPrice(ctx context.Context, id int64) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := r.pool.QueryRow(ctx, getUnitPriceSQL, id).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, product.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("pricing product %d: %w", id, err)
	}
	return price, nil
}

// Create inserts a new product and fills in the generated ID and timestamp.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.Name, p.Description, p.Price, p.Category, p.ImageURL,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}
	return nil
}

// Update rewrites a live product's catalog fields.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("updating product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// SoftDelete flags a product as deleted. The row is kept so existing order
// line items remain resolvable for display.
func (r *ProductRepository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, softDeleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price,
		&p.Category, &p.ImageURL, &p.Deleted, &p.CreatedAt,
	)
	return p, err
}
