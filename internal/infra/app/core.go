package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/config"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/telemetry"
	postgresrepo "github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository/postgres"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

// Core holds the authentication and authorization services shared by the API and policyctl.
type Core struct {
	Resolver   *usecase.PermissionResolver
	Engine     usecase.AuthorizationEngine
	Authorizer *usecase.Authorizer
	Sessions   *usecase.SessionAuthenticator
	Policy     *usecase.PolicyMutationService
}

// NewCore wires the usecases on top of store. metrics and events may be nil.
func NewCore(store *postgresrepo.Store, auth config.AuthSettings, events port.PolicyEventPublisher, metrics *telemetry.AuthMetrics, log *zap.Logger) (*Core, error) {
	if log == nil {
		log = zap.NewNop()
	}

	policy, err := auth.EndpointPolicy()
	if err != nil {
		return nil, fmt.Errorf("endpoint policy: %w", err)
	}

	resolver := usecase.NewPermissionResolver(store.Roles, store.Permissions, store.Endpoints)
	engine := usecase.NewAuthorizationEngine(policy)

	admin, err := usecase.NewAdminAccessResolver(auth.Strategy(), store.AdminGrants, resolver)
	if err != nil {
		return nil, fmt.Errorf("admin access resolver: %w", err)
	}

	authorizerOpts := []usecase.AuthorizerOption{usecase.WithAuthorizerLogger(log)}
	sessionOpts := []usecase.SessionAuthenticatorOption{
		usecase.WithSessionTouch(auth.TouchSessions),
		usecase.WithAuthenticatorLogger(log),
	}
	if metrics != nil {
		authorizerOpts = append(authorizerOpts, usecase.WithDecisionRecorder(metrics))
		sessionOpts = append(sessionOpts, usecase.WithAuthenticationRecorder(metrics))
	}

	return &Core{
		Resolver:   resolver,
		Engine:     engine,
		Authorizer: usecase.NewAuthorizer(resolver, engine, authorizerOpts...),
		Sessions:   usecase.NewSessionAuthenticator(store.Sessions, admin, sessionOpts...),
		Policy: usecase.NewPolicyMutationService(usecase.PolicyRepositories{
			Roles:       store.Roles,
			Endpoints:   store.Endpoints,
			Permissions: store.Permissions,
			Users:       store.Users,
			AdminGrants: store.AdminGrants,
		}, store, events, log),
	}, nil
}
