package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/config"
)

const (
	schemaVersion = "1.0"

	// PolicyChangedEventType is the event type, and topic suffix, of policy audit events.
	PolicyChangedEventType = "policy.changed"
)

// EventPublisher implements port.PolicyEventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	ActorID   *int64           `json:"actor_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

type policyChangedPayload struct {
	Kind          string  `json:"kind"`
	RoleID        *int64  `json:"role_id,omitempty"`
	EndpointID    *int64  `json:"endpoint_id,omitempty"`
	UserID        *int64  `json:"user_id,omitempty"`
	PermissionIDs []int64 `json:"permission_ids,omitempty"`
}

// PublishPolicyChanged publishes trend-diary.policy.changed events. Messages are keyed by
// the mutated owner so changes to one role or endpoint stay ordered within a partition.
func (p *EventPublisher) PublishPolicyChanged(ctx context.Context, event domain.PolicyChangedEvent) error {
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := event.EventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: PolicyChangedEventType,
		ActorID:   event.ActorID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload: policyChangedPayload{
			Kind:          string(event.Kind),
			RoleID:        event.RoleID,
			EndpointID:    event.EndpointID,
			UserID:        event.UserID,
			PermissionIDs: event.PermissionIDs,
		},
		Metadata: metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(PolicyChangedEventType),
		Key:   sarama.StringEncoder(partitionKey(event)),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func partitionKey(event domain.PolicyChangedEvent) string {
	switch {
	case event.RoleID != nil:
		return "role:" + strconv.FormatInt(*event.RoleID, 10)
	case event.EndpointID != nil:
		return "endpoint:" + strconv.FormatInt(*event.EndpointID, 10)
	case event.UserID != nil:
		return "user:" + strconv.FormatInt(*event.UserID, 10)
	default:
		return "policy"
	}
}

var _ port.PolicyEventPublisher = (*EventPublisher)(nil)
