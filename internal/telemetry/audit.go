package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

const (
	LevelInfo = "info"
	LevelWarn = "warn"
)

// Security actions recorded in the audit trail.
const (
	ActionRegister        = "register"
	ActionLogin           = "login"
	ActionLoginFailed     = "login_failed"
	ActionLogout          = "logout"
	ActionLockout         = "lockout"
	ActionPasswordChanged = "password_changed"
	ActionPasswordFailed  = "password_failed"
	ActionSessionRevoked  = "session_revoked"
	ActionRemoteRevoked   = "session_revoked_remotely"
	ActionTest            = "audit_test"
)

// Record is one audit entry. Empty strings are omitted from the envelope.
type Record struct {
	Level     string
	Action    string
	Text      string
	RequestID string
	UserID    string
}

// Auditor records security relevant actions.
type Auditor interface {
	Emit(ctx context.Context, rec Record)
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id,omitempty"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level  string `json:"level"`
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
}

// AuditEmitter publishes records as AuditEnvelope values.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	now         func() time.Time
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

func (e *AuditEmitter) Emit(ctx context.Context, rec Record) {
	if e == nil || e.publisher == nil {
		return
	}
	if rec.Level == "" {
		rec.Level = LevelInfo
	}

	envelope := AuditEnvelope{
		SchemaVersion: 2,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     rec.RequestID,
		Payload:       AuditPayload{Level: rec.Level, Action: rec.Action, Text: rec.Text},
	}
	if rec.UserID != "" {
		userID := rec.UserID
		envelope.UserID = &userID
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Warn().Err(err).Str("action", rec.Action).Msg("audit publish failed")
	}
}

// Nop discards audit records.
type Nop struct{}

func (Nop) Emit(context.Context, Record) {}
