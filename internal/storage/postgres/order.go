package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ambarika/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (customer_name, email, phone_number, address, items, total, status, payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	listOrdersSQL = `SELECT id, customer_name, email, phone_number, address, items, total, status, payment_id, created_at
		FROM orders ORDER BY created_at DESC`

	getOrderByIDSQL = `SELECT id, customer_name, email, phone_number, address, items, total, status, payment_id, created_at
		FROM orders WHERE id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order as a single INSERT, so a crash can never
// leave a partially priced row. The priced line items are serialized into
// the JSONB column; ID and CreatedAt are filled in from the database.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	err = r.pool.QueryRow(ctx, createOrderSQL,
		o.CustomerName, o.Email, o.PhoneNumber, o.Address,
		itemsJSON, o.Total, string(o.Status), o.PaymentID,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	return nil
}

// List returns all orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// GetByID returns a single order.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus sets the fulfillment status. Transition validation happens
// in the service; this is a plain column update.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating order %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		status    string
	)
	err := row.Scan(
		&o.ID, &o.CustomerName, &o.Email, &o.PhoneNumber, &o.Address,
		&itemsJSON, &o.Total, &status, &o.PaymentID, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	o.Status = order.Status(status)
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order %d items: %w", o.ID, err)
	}
	return o, nil
}
