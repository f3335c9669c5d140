package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homego/internal/domain"
)

// PromotionRepository define el contrato de persistencia de campañas.
type PromotionRepository interface {
	Create(ctx context.Context, p domain.Promotion) error
	List(ctx context.Context) ([]domain.Promotion, error)
	Delete(ctx context.Context, id string) error
}

// PgPromotionRepository implementa PromotionRepository usando pgxpool.
type PgPromotionRepository struct {
	pool *pgxpool.Pool
}

func NewPgPromotionRepository(pool *pgxpool.Pool) *PgPromotionRepository {
	return &PgPromotionRepository{pool: pool}
}

func (r *PgPromotionRepository) Create(ctx context.Context, p domain.Promotion) error {
	const query = `
		INSERT INTO promotions (id, title, description, discount_percent, image_url, starts_at, ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.DiscountPercent,
		p.ImageURL,
		p.StartsAt,
		p.EndsAt,
		p.CreatedAt,
	)
	return err
}

func (r *PgPromotionRepository) List(ctx context.Context) ([]domain.Promotion, error) {
	const query = `
		SELECT id, title, description, discount_percent, image_url, starts_at, ends_at, created_at
		FROM promotions
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Promotion
	for rows.Next() {
		var p domain.Promotion
		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.DiscountPercent,
			&p.ImageURL,
			&p.StartsAt,
			&p.EndsAt,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PgPromotionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM promotions WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
