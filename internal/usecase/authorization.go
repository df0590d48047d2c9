package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

const tracerName = "github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"

// AuthorizationEngine decides ALLOW/DENY from a required and a granted permission set.
// It holds no mutable state and performs no I/O.
type AuthorizationEngine struct {
	policy domain.UnregisteredEndpointPolicy
}

// NewAuthorizationEngine constructs an engine. An empty policy falls back to allow.
func NewAuthorizationEngine(policy domain.UnregisteredEndpointPolicy) AuthorizationEngine {
	if policy == "" {
		policy = domain.UnregisteredEndpointAllow
	}
	return AuthorizationEngine{policy: policy}
}

// Policy returns the configured policy for endpoints without permission data.
func (e AuthorizationEngine) Policy() domain.UnregisteredEndpointPolicy {
	return e.policy
}

// Decide evaluates required against granted. All required permissions must be held.
func (e AuthorizationEngine) Decide(required domain.RequiredPermissions, granted domain.PermissionSet) domain.Decision {
	if !required.Registered {
		return domain.Decision{Allowed: e.policy.Allows(), Reason: domain.DecisionReasonUnregistered}
	}

	if required.Permissions.Len() == 0 {
		return domain.Decision{Allowed: e.policy.Allows(), Reason: domain.DecisionReasonNoRequirements}
	}

	missing := required.Permissions.Missing(granted)
	if len(missing) == 0 {
		return domain.Decision{Allowed: true, Reason: domain.DecisionReasonSatisfied}
	}

	names := make([]string, 0, len(missing))
	for _, permission := range missing {
		names = append(names, permission.Name())
	}

	return domain.Decision{Allowed: false, Reason: domain.DecisionReasonMissing, Missing: names}
}

// DecisionRecorder receives authorization outcomes, typically for metrics.
type DecisionRecorder interface {
	RecordDecision(decision domain.Decision, elapsed time.Duration)
}

type permissionSource interface {
	EffectivePermissions(ctx context.Context, userID int64) (domain.PermissionSet, error)
	RequiredPermissions(ctx context.Context, path, method string) (domain.RequiredPermissions, error)
}

// Authorizer runs the resolver and the engine for a single request.
type Authorizer struct {
	resolver permissionSource
	engine   AuthorizationEngine
	recorder DecisionRecorder
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// AuthorizerOption customises an Authorizer.
type AuthorizerOption func(*Authorizer)

// WithDecisionRecorder attaches a recorder notified of every decision.
func WithDecisionRecorder(recorder DecisionRecorder) AuthorizerOption {
	return func(a *Authorizer) {
		a.recorder = recorder
	}
}

// WithAuthorizerLogger sets the logger used for deny diagnostics.
func WithAuthorizerLogger(logger *zap.Logger) AuthorizerOption {
	return func(a *Authorizer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAuthorizer constructs an Authorizer.
func NewAuthorizer(resolver permissionSource, engine AuthorizationEngine, opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{
		resolver: resolver,
		engine:   engine,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Check decides whether userID may call (path, method). Effective permissions are
// only loaded when the endpoint actually requires something.
func (a *Authorizer) Check(ctx context.Context, userID int64, path, method string) (domain.Decision, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.check", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.String("endpoint.path", path),
		attribute.String("endpoint.method", method),
	))
	defer span.End()

	started := a.now()

	required, err := a.resolver.RequiredPermissions(ctx, path, method)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve required permissions")
		return domain.Decision{}, err
	}

	granted := domain.NewPermissionSet()
	if required.Registered && required.Permissions.Len() > 0 {
		granted, err = a.resolver.EffectivePermissions(ctx, userID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "resolve effective permissions")
			return domain.Decision{}, err
		}
	}

	decision := a.engine.Decide(required, granted)

	span.SetAttributes(
		attribute.String("authz.outcome", decision.Outcome()),
		attribute.String("authz.reason", string(decision.Reason)),
	)

	if a.recorder != nil {
		a.recorder.RecordDecision(decision, a.now().Sub(started))
	}

	if !decision.Allowed {
		a.logger.Info("authorization denied",
			zap.Int64("user_id", userID),
			zap.String("path", path),
			zap.String("method", method),
			zap.String("reason", string(decision.Reason)),
			zap.Strings("missing", decision.Missing),
		)
	}

	return decision, nil
}
