package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/config"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/database"
	kafkainfra "github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/kafka"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/logger"
	redisinfra "github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/redis"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/telemetry"
	postgresrepo "github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository/postgres"
	redisrepo "github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository/redis"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/transport/http/middleware"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/transport/http/routes"
)

const defaultShutdownTimeout = 10 * time.Second

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	tracer   *telemetry.TracerProvider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	ok := false
	defer func() {
		if !ok {
			a.close(context.Background())
		}
	}()

	a.tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	if cfg.Postgres.MigrateOnStart {
		if err := postgresrepo.Migrate(ctx, a.pool); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("database migrations applied")
	}

	var probeStore port.FailureWindowStore
	if cfg.ProbeGuard.Enabled {
		a.redis, err = redisinfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		probeStore = redisrepo.NewFailureWindowRepository(a.redis.Client(), redisrepo.FailureWindowConfig{
			KeyPrefix: cfg.ProbeGuard.KeyPrefix,
		})
	}

	var events port.PolicyEventPublisher
	if cfg.Kafka.Enabled {
		a.producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			events = kafkainfra.NewStubPublisher(log)
		} else {
			events = kafkainfra.NewEventPublisher(a.producer, cfg.App, log)
		}
	} else {
		log.Info("kafka disabled, policy events are logged only")
		events = kafkainfra.NewStubPublisher(log)
	}

	authMetrics, err := telemetry.NewAuthMetrics(telemetry.AuthMetricsOptions{Registerer: prometheus.DefaultRegisterer})
	if err != nil {
		return nil, fmt.Errorf("init auth metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: prometheus.DefaultRegisterer})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	core, err := NewCore(postgresrepo.NewStore(a.pool), cfg.Auth, events, authMetrics, log)
	if err != nil {
		return nil, err
	}

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Sessions:    core.Sessions,
		Access:      core.Authorizer,
		Policy:      core.Policy,
		HTTPMetrics: httpMetrics,
		Database:    a.pool,
	}
	if probeStore != nil {
		deps.Cache = a.redis
		deps.ProbeGuard = middleware.NewProbeGuard(probeStore, middleware.ProbeGuardConfig{
			MaxFailures: cfg.ProbeGuard.MaxFailures,
			Window:      cfg.ProbeGuard.Window,
		}, authMetrics, log)
	}

	a.engine = routes.Register(deps)
	ok = true
	return a, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests and releases resources.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting trend-diary auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		timeout := a.cfg.App.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		a.close(shutdownCtx)
		if err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *Application) close(ctx context.Context) {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("shutdown tracer", zap.Error(err))
		}
	}
}
