package policyctl

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/app"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/config"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/database"
	kafkainfra "github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/kafka"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/logger"
	postgresrepo "github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository/postgres"
)

// AccessChecker answers authorization questions for the check command.
type AccessChecker interface {
	Check(ctx context.Context, userID int64, path, method string) (domain.Decision, error)
}

// Environment is what the subcommands operate on.
type Environment struct {
	Policy  PolicyService
	Access  AccessChecker
	Migrate func(ctx context.Context) error
	Logger  *zap.Logger

	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (e *Environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// Opener builds an Environment; tests substitute their own.
type Opener func(ctx context.Context, envFile string) (*Environment, error)

// OpenEnvironment loads configuration the way the API does and connects to postgres.
// Policy events go to Kafka when it is enabled and are logged otherwise.
func OpenEnvironment(ctx context.Context, envFile string) (*Environment, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	env := &Environment{Logger: log}
	env.closers = append(env.closers, func() { _ = log.Sync() })

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	env.closers = append(env.closers, pool.Close)
	env.Migrate = func(ctx context.Context) error {
		return postgresrepo.Migrate(ctx, pool)
	}

	events := openPublisher(cfg, log, env)

	core, err := app.NewCore(postgresrepo.NewStore(pool), cfg.Auth, events, nil, log)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Policy = core.Policy
	env.Access = core.Authorizer

	return env, nil
}

func openPublisher(cfg *config.AppConfig, log *zap.Logger, env *Environment) port.PolicyEventPublisher {
	if !cfg.Kafka.Enabled {
		return kafkainfra.NewStubPublisher(log)
	}

	producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(log)
	}
	env.closers = append(env.closers, func() {
		if err := producer.Close(); err != nil {
			log.Warn("close kafka producer", zap.Error(err))
		}
	})
	return kafkainfra.NewEventPublisher(producer, cfg.App, log)
}

