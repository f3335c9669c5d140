package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"homego/internal/domain"
)

// OrderFilter acota el listado de órdenes.
type OrderFilter struct {
	SellerID   string
	CustomerID string
}

// OrderRepository define el contrato de persistencia para órdenes.
type OrderRepository interface {
	Create(ctx context.Context, o domain.Order) error
	GetByID(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
	StatsBySeller(ctx context.Context, sellerID string) (int, decimal.Decimal, error)
	Totals(ctx context.Context) (int, decimal.Decimal, error)
}

// PgOrderRepository implementa OrderRepository usando pgxpool. Las
// líneas de la orden se guardan como JSONB.
type PgOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPgOrderRepository(pool *pgxpool.Pool) *PgOrderRepository {
	return &PgOrderRepository{pool: pool}
}

func (r *PgOrderRepository) Create(ctx context.Context, o domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO orders (id, customer_id, seller_id, items, subtotal, shipping, tax, total, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.pool.Exec(ctx, query,
		o.ID,
		o.CustomerID,
		o.SellerID,
		items,
		o.Subtotal,
		o.Shipping,
		o.Tax,
		o.Total,
		o.Status,
		o.CreatedAt,
	)
	return err
}

func (r *PgOrderRepository) GetByID(ctx context.Context, id string) (domain.Order, error) {
	const query = `
		SELECT id, customer_id, seller_id, items, subtotal, shipping, tax, total, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanOrder(row)
}

func (r *PgOrderRepository) List(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	const query = `
		SELECT id, customer_id, seller_id, items, subtotal, shipping, tax, total, status, created_at, updated_at
		FROM orders
		WHERE ($1 = '' OR seller_id = $1)
		  AND ($2 = '' OR customer_id = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, filter.SellerID, filter.CustomerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PgOrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgOrderRepository) StatsBySeller(ctx context.Context, sellerID string) (int, decimal.Decimal, error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders WHERE seller_id = $1`
	var count int
	var sales decimal.Decimal
	err := r.pool.QueryRow(ctx, query, sellerID).Scan(&count, &sales)
	return count, sales, err
}

func (r *PgOrderRepository) Totals(ctx context.Context) (int, decimal.Decimal, error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders`
	var count int
	var revenue decimal.Decimal
	err := r.pool.QueryRow(ctx, query).Scan(&count, &revenue)
	return count, revenue, err
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var items []byte
	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.SellerID,
		&items,
		&o.Subtotal,
		&o.Shipping,
		&o.Tax,
		&o.Total,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return domain.Order{}, err
		}
	}
	return o, nil
}
