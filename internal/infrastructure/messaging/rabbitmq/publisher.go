package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/baechuer/real-time-ressys/services/ranking-service/internal/contracts/event"
	appCtx "github.com/baechuer/real-time-ressys/services/ranking-service/internal/pkg/context"
)

const (
	DefaultExchange = "city.events"

	producerName    = "ranking-service"
	envelopeVersion = 1

	// wait window for a broker confirm
	publishWait = 150 * time.Millisecond
)

// Publisher wraps payloads in the shared envelope and publishes them to a
// topic exchange with publisher confirms.
type Publisher struct {
	url      string
	exchange string

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel
}

// confirmWaiter is satisfied by *amqp.DeferredConfirmation.
type confirmWaiter interface {
	WaitContext(ctx context.Context) (bool, error)
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	p := &Publisher{
		url:      url,
		exchange: exchange,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	return nil
}

// PublishEvent publishes payload under routingKey. It is not mandatory:
// reaction.toggled is a notification and may have no subscribers yet.
func (p *Publisher) PublishEvent(ctx context.Context, routingKey string, payload any) error {
	if routingKey == "" {
		return errors.New("missing routingKey")
	}

	env := newEnvelope(ctx, payload, time.Now().UTC())
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return errors.New("publisher channel not ready")
	}

	dc, err := p.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			MessageId:    env.MessageID,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    env.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return err
	}
	if dc == nil {
		return nil
	}
	return awaitConfirm(ctx, dc, publishWait)
}

// awaitConfirm waits up to wait for the broker confirm of one publish. A
// confirm that arrives later is tracked by its own delivery tag and never
// answers another publish.
func awaitConfirm(ctx context.Context, dc confirmWaiter, wait time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ack, err := dc.WaitContext(wctx)
	switch {
	case err == nil && !ack:
		return errors.New("publish nack")
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		// no confirm inside the window; delivery stays best effort
		return nil
	default:
		return err
	}
}

func newEnvelope(ctx context.Context, payload any, at time.Time) event.DomainEventEnvelope[any] {
	return event.DomainEventEnvelope[any]{
		Version:    envelopeVersion,
		Producer:   producerName,
		TraceID:    appCtx.GetRequestID(ctx),
		MessageID:  uuid.NewString(),
		OccurredAt: at,
		Payload:    payload,
	}
}
