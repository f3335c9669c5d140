package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homego/internal/domain"
)

// ProductFilter acota el listado de productos.
type ProductFilter struct {
	SellerID string
	Category string
}

// ProductRepository define el contrato de persistencia del catálogo.
type ProductRepository interface {
	Create(ctx context.Context, p domain.Product) error
	GetByID(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, p domain.Product) error
	Delete(ctx context.Context, id string) error
	CountBySeller(ctx context.Context, sellerID string) (int, error)
	CountAll(ctx context.Context) (int, error)
}

// PgProductRepository implementa ProductRepository usando pgxpool.
type PgProductRepository struct {
	pool *pgxpool.Pool
}

func NewPgProductRepository(pool *pgxpool.Pool) *PgProductRepository {
	return &PgProductRepository{pool: pool}
}

func (r *PgProductRepository) Create(ctx context.Context, p domain.Product) error {
	const query = `
		INSERT INTO products (id, seller_id, name, description, category, price, image_url, model_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.SellerID,
		p.Name,
		p.Description,
		p.Category,
		p.Price,
		p.ImageURL,
		p.ModelURL,
		p.Status,
		p.CreatedAt,
	)
	return err
}

func (r *PgProductRepository) GetByID(ctx context.Context, id string) (domain.Product, error) {
	const query = `
		SELECT id, seller_id, name, description, category, price, image_url, model_url, status, created_at, updated_at
		FROM products
		WHERE id = $1
	`
	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.SellerID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.ImageURL,
		&p.ModelURL,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *PgProductRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	query := `
		SELECT id, seller_id, name, description, category, price, image_url, model_url, status, created_at, updated_at
		FROM products
		WHERE ($1 = '' OR seller_id = $1)
		  AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, filter.SellerID, filter.Category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.SellerID,
			&p.Name,
			&p.Description,
			&p.Category,
			&p.Price,
			&p.ImageURL,
			&p.ModelURL,
			&p.Status,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PgProductRepository) Update(ctx context.Context, p domain.Product) error {
	const query = `
		UPDATE products
		SET name = $2, description = $3, category = $4, price = $5,
		    image_url = $6, model_url = $7, status = $8, updated_at = $9
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Category,
		p.Price,
		p.ImageURL,
		p.ModelURL,
		p.Status,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgProductRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM products WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgProductRepository) CountBySeller(ctx context.Context, sellerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM products WHERE seller_id = $1`
	var count int
	err := r.pool.QueryRow(ctx, query, sellerID).Scan(&count)
	return count, err
}

func (r *PgProductRepository) CountAll(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM products`
	var count int
	err := r.pool.QueryRow(ctx, query).Scan(&count)
	return count, err
}
