package email

import (
	"context"
	"errors"
)

// Sender define la interfaz para notificaciones de soporte por correo.
type Sender interface {
	SendTicketUpdate(ctx context.Context, toEmail, ticketID, subject, message string) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendTicketUpdate(_ context.Context, _, _, _, _ string) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
