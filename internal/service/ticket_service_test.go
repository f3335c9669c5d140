package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"homego/internal/domain"
	"homego/internal/repository"
)

type mockTicketRepo struct {
	byTicketID map[string]domain.SupportTicket
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{byTicketID: make(map[string]domain.SupportTicket)}
}

func (m *mockTicketRepo) Create(_ context.Context, t domain.SupportTicket) error {
	m.byTicketID[t.TicketID] = t
	return nil
}

func (m *mockTicketRepo) GetByTicketID(_ context.Context, ticketID string) (domain.SupportTicket, error) {
	t, ok := m.byTicketID[ticketID]
	if !ok {
		return domain.SupportTicket{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *mockTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.SupportTicket, error) {
	var out []domain.SupportTicket
	for _, t := range m.byTicketID {
		if filter.UserEmail != "" && t.UserEmail != filter.UserEmail {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTicketRepo) UpdateStatus(_ context.Context, ticketID, status string) error {
	t, ok := m.byTicketID[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Status = status
	m.byTicketID[ticketID] = t
	return nil
}

func (m *mockTicketRepo) AppendResponse(_ context.Context, ticketID string, response domain.TicketResponse) error {
	t, ok := m.byTicketID[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Responses = append(t.Responses, response)
	m.byTicketID[ticketID] = t
	return nil
}

func (m *mockTicketRepo) CountByStatus(_ context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, t := range m.byTicketID {
		out[t.Status]++
	}
	return out, nil
}

type recordingSender struct {
	to      []string
	tickets []string
	err     error
}

func (r *recordingSender) SendTicketUpdate(_ context.Context, toEmail, ticketID, _, _ string) error {
	r.to = append(r.to, toEmail)
	r.tickets = append(r.tickets, ticketID)
	return r.err
}

func TestTicketCreateDefaults(t *testing.T) {
	repo := newMockTicketRepo()
	svc := NewTicketService(zap.NewNop(), repo, nil)

	ticket, err := svc.Create(context.Background(), CreateTicketInput{
		Subject:   "Mesa dañada",
		Message:   "Llegó con una pata rota",
		UserEmail: "Ana@Example.com",
		UserName:  "Ana",
		UserRole:  domain.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(ticket.TicketID, "TKT-") {
		t.Fatalf("ticket id: %q", ticket.TicketID)
	}
	if ticket.Status != domain.TicketOpen {
		t.Fatalf("status: %q", ticket.Status)
	}
	if ticket.Priority != domain.PriorityMedium || ticket.Category != "general" {
		t.Fatalf("defaults: priority=%q category=%q", ticket.Priority, ticket.Category)
	}
	if ticket.UserEmail != "ana@example.com" {
		t.Fatalf("email not normalized: %q", ticket.UserEmail)
	}
	if ticket.Responses == nil || len(ticket.Responses) != 0 {
		t.Fatalf("responses must start empty, got %v", ticket.Responses)
	}
}

func TestTicketCreateRequiresSubjectAndMessage(t *testing.T) {
	svc := NewTicketService(zap.NewNop(), newMockTicketRepo(), nil)

	if _, err := svc.Create(context.Background(), CreateTicketInput{Subject: "  ", Message: "hola"}); !errors.Is(err, ErrInvalidTicketState) {
		t.Fatalf("expected ErrInvalidTicketState, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateTicketInput{Subject: "hola", Message: ""}); !errors.Is(err, ErrInvalidTicketState) {
		t.Fatalf("expected ErrInvalidTicketState, got %v", err)
	}
}

func TestTicketUpdateStatus(t *testing.T) {
	repo := newMockTicketRepo()
	svc := NewTicketService(zap.NewNop(), repo, nil)

	ticket, err := svc.Create(context.Background(), CreateTicketInput{Subject: "a", Message: "b", UserEmail: "a@b.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), ticket.TicketID, domain.TicketResolved); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ := svc.Get(context.Background(), ticket.TicketID)
	if got.Status != domain.TicketResolved {
		t.Fatalf("status not applied: %q", got.Status)
	}

	if err := svc.UpdateStatus(context.Background(), ticket.TicketID, "archived"); !errors.Is(err, ErrInvalidTicketState) {
		t.Fatalf("expected ErrInvalidTicketState, got %v", err)
	}
	if err := svc.UpdateStatus(context.Background(), "TKT-missing", domain.TicketClosed); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound, got %v", err)
	}
}

func TestTicketAddResponseNotifiesByEmail(t *testing.T) {
	repo := newMockTicketRepo()
	sender := &recordingSender{}
	svc := NewTicketService(zap.NewNop(), repo, sender)

	ticket, err := svc.Create(context.Background(), CreateTicketInput{Subject: "a", Message: "b", UserEmail: "ana@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.AddResponse(context.Background(), ticket.TicketID, domain.TicketResponse{
		Message:       "Estamos revisando tu caso",
		ResponderName: "Soporte",
		ResponderRole: domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("add response: %v", err)
	}

	got, _ := svc.Get(context.Background(), ticket.TicketID)
	if len(got.Responses) != 1 || got.Responses[0].Message != "Estamos revisando tu caso" {
		t.Fatalf("response not appended: %+v", got.Responses)
	}
	if got.Responses[0].Timestamp.IsZero() {
		t.Fatalf("timestamp should be set")
	}
	if len(sender.to) != 1 || sender.to[0] != "ana@example.com" {
		t.Fatalf("email notification: %v", sender.to)
	}
}

func TestTicketAddResponseEmailFailureIsNotFatal(t *testing.T) {
	repo := newMockTicketRepo()
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := NewTicketService(zap.NewNop(), repo, sender)

	ticket, err := svc.Create(context.Background(), CreateTicketInput{Subject: "a", Message: "b", UserEmail: "ana@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.AddResponse(context.Background(), ticket.TicketID, domain.TicketResponse{Message: "hola"}); err != nil {
		t.Fatalf("email failure must not fail the response: %v", err)
	}
}

func TestTicketAddResponseValidation(t *testing.T) {
	svc := NewTicketService(zap.NewNop(), newMockTicketRepo(), nil)

	if err := svc.AddResponse(context.Background(), "TKT-x", domain.TicketResponse{Message: "  "}); !errors.Is(err, ErrInvalidTicketState) {
		t.Fatalf("expected ErrInvalidTicketState, got %v", err)
	}
	if err := svc.AddResponse(context.Background(), "TKT-x", domain.TicketResponse{Message: "hola"}); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound, got %v", err)
	}
}
