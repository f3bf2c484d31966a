package telemetry

import (
	"context"
	"log"
	"time"

	"marketplace-chat/internal/observability"
)

// AuditEmitter publishes moderation audit events so admin actions against
// users and messages leave a trail outside the chat service.
type AuditEmitter struct {
	publisher   observability.Publisher
	routingKey  string
	service     string
	environment string
}

// AuditEnvelope is the versioned audit record schema.
type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	ActorID       string       `json:"actor_id"`
	Payload       AuditPayload `json:"payload"`
}

// AuditPayload describes one moderation action.
type AuditPayload struct {
	Action       string `json:"action"`
	TargetUserID string `json:"target_user_id,omitempty"`
	MessageID    int    `json:"message_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// NewAuditEmitter constructs an AuditEmitter.
func NewAuditEmitter(publisher observability.Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one audit record. Failures are logged, never fatal to the
// admin action that triggered them.
func (e *AuditEmitter) Emit(ctx context.Context, actorID string, payload AuditPayload) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "moderation_audit",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		ActorID:       actorID,
		Payload:       payload,
	}

	if err := e.publisher.PublishJSON(ctx, e.routingKey, envelope, nil); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
