package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"kit-messenger/internal/telemetry"
)

type Mode string

const (
	ModeAMQP Mode = "amqp"
	ModeLog  Mode = "log"
)

// Publisher sends audit records and domain events to a topic exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewPublisher dials the broker. Without a url, or when the broker is
// unreachable, records are written to the log instead.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		return degrade("no broker url configured")
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return degrade(fmt.Sprintf("dial: %v", err))
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return degrade(fmt.Sprintf("open channel: %v", err))
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return degrade(fmt.Sprintf("declare exchange %s: %v", exchange, err))
	}

	log.Info().Str("exchange", exchange).Msg("broker publisher ready")
	return &brokerPublisher{conn: conn, ch: ch, exchange: exchange}
}

func degrade(reason string) Publisher {
	log.Warn().Str("reason", reason).Msg("broker unavailable, publishing to log")
	return logPublisher{reason: reason}
}

type brokerPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *brokerPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", routingKey, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{},
		Body:         body,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		msg.Headers["trace_id"] = sc.TraceID().String()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		log.Error().Err(err).Str("routing_key", routingKey).Msg("broker publish failed")
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *brokerPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	return p.conn.Close()
}

type logPublisher struct {
	reason string
}

func (logPublisher) Publish(_ context.Context, routingKey string, event any) error {
	entry := log.Info().Str("routing_key", routingKey)
	switch ev := event.(type) {
	case telemetry.AuditEnvelope:
		entry = entry.Str("action", ev.Payload.Action).Str("level", ev.Payload.Level)
		if ev.Payload.Text != "" {
			entry = entry.Str("text", ev.Payload.Text)
		}
		if ev.UserID != nil {
			entry = entry.Str("user_id", *ev.UserID)
		}
		entry.Msg("audit")
	default:
		entry.Interface("event", event).Msg("event")
	}
	return nil
}

func (logPublisher) Close() error { return nil }

// ModeOf reports how p delivers and, for the log mode, why the broker was skipped.
func ModeOf(p Publisher) (Mode, string) {
	if lp, ok := p.(logPublisher); ok {
		return ModeLog, lp.reason
	}
	return ModeAMQP, ""
}
