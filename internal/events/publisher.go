package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Colas a las que se relayan los eventos de dominio.
const (
	QueueOrderCreated  = "order.created"
	QueueTicketUpdated = "ticket.updated"
	QueueUserSignedIn  = "user.signed_in"
)

// Publisher relaya eventos de dominio a RabbitMQ. Es best-effort por
// contrato: los errores se loguean y se devuelven para que el caller
// decida ignorarlos sin cortar el flujo principal.
type Publisher interface {
	Publish(ctx context.Context, queue string, event interface{}) error
	Close() error
}

// NewDisabledPublisher devuelve un publisher inerte para entornos sin
// broker configurado.
func NewDisabledPublisher() Publisher {
	return disabledPublisher{}
}

type disabledPublisher struct{}

func (disabledPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (disabledPublisher) Close() error                                       { return nil }

// AMQPPublisher mantiene una conexión al broker y declara cada cola en
// el primer publish (declare es idempotente).
type AMQPPublisher struct {
	logger *zap.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
}

func NewAMQPPublisher(url string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{
		logger:   logger,
		conn:     conn,
		ch:       ch,
		declared: make(map[string]bool),
	}, nil
}

// Publish serializa el evento y lo encola como mensaje persistente en
// el exchange default.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to marshal queue event", zap.String("queue", queue), zap.Error(err))
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[queue] {
		if _, err := p.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			p.logger.Warn("queue declare failed", zap.String("queue", queue), zap.Error(err))
			return err
		}
		p.declared[queue] = true
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.logger.Warn("queue publish failed", zap.String("queue", queue), zap.Error(err))
		return err
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
