package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"homego/internal/domain"
	"homego/internal/email"
	"homego/internal/repository"
)

// TicketService coordina los tickets de soporte y sus respuestas.
type TicketService struct {
	logger  *zap.Logger
	tickets repository.TicketRepository
	sender  email.Sender
}

var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrInvalidTicketState = errors.New("invalid ticket state")
)

func NewTicketService(logger *zap.Logger, tickets repository.TicketRepository, sender email.Sender) *TicketService {
	return &TicketService{
		logger:  logger,
		tickets: tickets,
		sender:  sender,
	}
}

type CreateTicketInput struct {
	Subject   string
	Message   string
	UserEmail string
	UserName  string
	UserRole  string
	Category  string
	Priority  string
}

// Create abre un ticket nuevo en estado open con un identificador
// legible tipo TKT-....
func (s *TicketService) Create(ctx context.Context, input CreateTicketInput) (domain.SupportTicket, error) {
	if s.tickets == nil {
		return domain.SupportTicket{}, errors.New("ticket service not configured")
	}

	subject := strings.TrimSpace(input.Subject)
	message := strings.TrimSpace(input.Message)
	if subject == "" || message == "" {
		return domain.SupportTicket{}, ErrInvalidTicketState
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	category := input.Category
	if category == "" {
		category = "general"
	}

	now := time.Now().UTC()
	ticket := domain.SupportTicket{
		ID:        uuid.NewString(),
		TicketID:  newTicketID(now),
		Subject:   subject,
		Message:   message,
		UserEmail: normalizeEmail(input.UserEmail),
		UserName:  strings.TrimSpace(input.UserName),
		UserRole:  input.UserRole,
		Category:  category,
		Priority:  priority,
		Status:    domain.TicketOpen,
		Responses: []domain.TicketResponse{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return domain.SupportTicket{}, err
	}
	return ticket, nil
}

// Get devuelve el ticket por su identificador legible.
func (s *TicketService) Get(ctx context.Context, ticketID string) (domain.SupportTicket, error) {
	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SupportTicket{}, ErrTicketNotFound
		}
		return domain.SupportTicket{}, err
	}
	return ticket, nil
}

// List filtra los tickets por email, rol o estado.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.SupportTicket, error) {
	return s.tickets.List(ctx, filter)
}

// UpdateStatus cambia el estado del ticket, validando que sea uno de
// los reconocidos.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID, status string) error {
	switch status {
	case domain.TicketOpen, domain.TicketInProgress, domain.TicketResolved, domain.TicketClosed:
	default:
		return ErrInvalidTicketState
	}
	err := s.tickets.UpdateStatus(ctx, ticketID, status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTicketNotFound
	}
	return err
}

// AddResponse agrega una respuesta al hilo y notifica por correo al
// dueño del ticket; el fallo de correo solo se loguea.
func (s *TicketService) AddResponse(ctx context.Context, ticketID string, response domain.TicketResponse) error {
	if strings.TrimSpace(response.Message) == "" {
		return ErrInvalidTicketState
	}
	response.Timestamp = time.Now().UTC()

	err := s.tickets.AppendResponse(ctx, ticketID, response)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTicketNotFound
	}
	if err != nil {
		return err
	}

	if s.sender != nil {
		ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
		if err == nil && ticket.UserEmail != "" {
			if err := s.sender.SendTicketUpdate(ctx, ticket.UserEmail, ticketID, ticket.Subject, response.Message); err != nil {
				if s.logger != nil {
					s.logger.Warn("ticket update email failed", zap.Error(err), zap.String("ticket_id", ticketID))
				}
			}
		}
	}
	return nil
}

// newTicketID genera un identificador legible tipo TKT-1711111111-AB12C.
func newTicketID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:5])
	return fmt.Sprintf("TKT-%d-%s", now.Unix(), suffix)
}
