package observability

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Routing keys for domain events mirrored to the broker.
const (
	RoutingSessionRevoked = "kit.session.revoked"
	RoutingMessageSent    = "kit.message.sent"
	RoutingCallEnded      = "kit.call.ended"
	RoutingWSError        = "kit.ws.error"
)

// EventSink delivers one JSON-encodable event under a routing key.
type EventSink interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	TraceID   string      `json:"trace_id,omitempty"`
	Payload   interface{} `json:"payload"`
}

var defaultSink EventSink

// SetSink installs the destination for PublishEvent. nil disables publishing.
func SetSink(sink EventSink) {
	defaultSink = sink
}

// PublishEvent wraps payload in an EventEnvelope and hands it to the
// installed sink. Failures are counted and logged, then returned.
func PublishEvent(ctx context.Context, routingKey, eventName string, payload interface{}) error {
	sink := defaultSink
	if sink == nil {
		return nil
	}

	envelope := EventEnvelope{
		EventType: routingKey,
		EventName: eventName,
		TraceID:   TraceIDFromContext(ctx),
		Payload:   payload,
	}
	if err := sink.Publish(ctx, routingKey, envelope); err != nil {
		IncAMQPPublishError()
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("domain event publish failed")
		return err
	}
	return nil
}

// TraceIDFromContext returns the active span's trace id, or "".
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
