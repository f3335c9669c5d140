package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"homego/internal/domain"
)

// TicketFilter acota el listado de tickets de soporte.
type TicketFilter struct {
	UserEmail string
	UserRole  string
	Status    string
}

// TicketRepository define el contrato de persistencia para tickets.
type TicketRepository interface {
	Create(ctx context.Context, t domain.SupportTicket) error
	GetByTicketID(ctx context.Context, ticketID string) (domain.SupportTicket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.SupportTicket, error)
	UpdateStatus(ctx context.Context, ticketID, status string) error
	AppendResponse(ctx context.Context, ticketID string, response domain.TicketResponse) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// PgTicketRepository implementa TicketRepository usando pgxpool. El
// hilo de respuestas se guarda como JSONB.
type PgTicketRepository struct {
	pool *pgxpool.Pool
}

func NewPgTicketRepository(pool *pgxpool.Pool) *PgTicketRepository {
	return &PgTicketRepository{pool: pool}
}

func (r *PgTicketRepository) Create(ctx context.Context, t domain.SupportTicket) error {
	responses, err := json.Marshal(t.Responses)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO support_tickets (id, ticket_id, subject, message, user_email, user_name, user_role, category, priority, status, responses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.pool.Exec(ctx, query,
		t.ID,
		t.TicketID,
		t.Subject,
		t.Message,
		t.UserEmail,
		t.UserName,
		t.UserRole,
		t.Category,
		t.Priority,
		t.Status,
		responses,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

func (r *PgTicketRepository) GetByTicketID(ctx context.Context, ticketID string) (domain.SupportTicket, error) {
	const query = `
		SELECT id, ticket_id, subject, message, user_email, user_name, user_role, category, priority, status, responses, created_at, updated_at
		FROM support_tickets
		WHERE ticket_id = $1
	`
	row := r.pool.QueryRow(ctx, query, ticketID)
	return scanTicket(row)
}

func (r *PgTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.SupportTicket, error) {
	const query = `
		SELECT id, ticket_id, subject, message, user_email, user_name, user_role, category, priority, status, responses, created_at, updated_at
		FROM support_tickets
		WHERE ($1 = '' OR user_email = $1)
		  AND ($2 = '' OR user_role = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, filter.UserEmail, filter.UserRole, filter.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PgTicketRepository) UpdateStatus(ctx context.Context, ticketID, status string) error {
	const query = `UPDATE support_tickets SET status = $2, updated_at = $3 WHERE ticket_id = $1`
	tag, err := r.pool.Exec(ctx, query, ticketID, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgTicketRepository) AppendResponse(ctx context.Context, ticketID string, response domain.TicketResponse) error {
	raw, err := json.Marshal(response)
	if err != nil {
		return err
	}
	const query = `
		UPDATE support_tickets
		SET responses = responses || $2::jsonb, updated_at = $3
		WHERE ticket_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, ticketID, raw, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgTicketRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	const query = `SELECT status, COUNT(*) FROM support_tickets GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

func scanTicket(row pgx.Row) (domain.SupportTicket, error) {
	var t domain.SupportTicket
	var responses []byte
	err := row.Scan(
		&t.ID,
		&t.TicketID,
		&t.Subject,
		&t.Message,
		&t.UserEmail,
		&t.UserName,
		&t.UserRole,
		&t.Category,
		&t.Priority,
		&t.Status,
		&responses,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return domain.SupportTicket{}, err
	}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &t.Responses); err != nil {
			return domain.SupportTicket{}, err
		}
	}
	return t, nil
}
