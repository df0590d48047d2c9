package port

import (
	"context"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

// PolicyEventPublisher publishes policy audit events to the message bus.
type PolicyEventPublisher interface {
	PublishPolicyChanged(ctx context.Context, event domain.PolicyChangedEvent) error
}
