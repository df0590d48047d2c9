package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when Kafka is disabled.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a logging event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishPolicyChanged logs policy.changed events.
func (p *StubPublisher) PublishPolicyChanged(_ context.Context, event domain.PolicyChangedEvent) error {
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	fields := []zap.Field{
		zap.String("event_type", PolicyChangedEventType),
		zap.String("event_id", event.EventID),
		zap.String("kind", string(event.Kind)),
		zap.Time("timestamp", at.UTC()),
	}
	if event.ActorID != nil {
		fields = append(fields, zap.Int64("actor_id", *event.ActorID))
	}
	if event.RoleID != nil {
		fields = append(fields, zap.Int64("role_id", *event.RoleID))
	}
	if event.EndpointID != nil {
		fields = append(fields, zap.Int64("endpoint_id", *event.EndpointID))
	}
	if event.UserID != nil {
		fields = append(fields, zap.Int64("user_id", *event.UserID))
	}
	if len(event.PermissionIDs) > 0 {
		fields = append(fields, zap.Int64s("permission_ids", event.PermissionIDs))
	}

	p.logger.Info("stub event published", fields...)
	return nil
}

var _ port.PolicyEventPublisher = (*StubPublisher)(nil)
