package domain

import "time"

// Estados y prioridades de tickets de soporte.
const (
	TicketOpen       = "open"
	TicketInProgress = "in-progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

type TicketResponse struct {
	Message       string    `json:"message"`
	ResponderName string    `json:"responderName"`
	ResponderRole string    `json:"responderRole"`
	Timestamp     time.Time `json:"timestamp"`
}

// SupportTicket es un reclamo o consulta creada por un cliente o vendedor.
type SupportTicket struct {
	ID        string           `json:"id"`
	TicketID  string           `json:"ticketId"`
	Subject   string           `json:"subject"`
	Message   string           `json:"message"`
	UserEmail string           `json:"userEmail"`
	UserName  string           `json:"userName"`
	UserRole  string           `json:"userRole"`
	Category  string           `json:"category"`
	Priority  string           `json:"priority"`
	Status    string           `json:"status"`
	Responses []TicketResponse `json:"responses"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
