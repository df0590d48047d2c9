package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

const envPrefix = "TREND_DIARY"

type AppConfig struct {
	App        AppSettings        `mapstructure:"app"`
	Postgres   PostgresSettings   `mapstructure:"postgres"`
	Redis      RedisSettings      `mapstructure:"redis"`
	Kafka      KafkaSettings      `mapstructure:"kafka"`
	Telemetry  TelemetrySettings  `mapstructure:"telemetry"`
	Auth       AuthSettings       `mapstructure:"auth"`
	ProbeGuard ProbeGuardSettings `mapstructure:"probe_guard"`
}

type AppSettings struct {
	Name            string        `mapstructure:"name"`
	Env             string        `mapstructure:"env"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	Schema            string        `mapstructure:"schema"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	MigrateOnStart    bool          `mapstructure:"migrate_on_start"`
}

// RedisSettings configures the Redis connection backing the probe guard.
type RedisSettings struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// KafkaSettings configures the policy audit producer. With no brokers events are only logged.
type KafkaSettings struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// AuthSettings configures session authentication and authorization.
type AuthSettings struct {
	SessionCookie              string `mapstructure:"session_cookie"`
	CookieSecure               bool   `mapstructure:"cookie_secure"`
	AdminStrategy              string `mapstructure:"admin_strategy"`
	UnregisteredEndpointPolicy string `mapstructure:"unregistered_endpoint_policy"`
	TouchSessions              bool   `mapstructure:"touch_sessions"`
}

// ProbeGuardSettings limits failed session authentications per client IP.
type ProbeGuardSettings struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures int           `mapstructure:"max_failures"`
	Window      time.Duration `mapstructure:"window"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

// EndpointPolicy parses the configured policy for endpoints without permission data.
func (a AuthSettings) EndpointPolicy() (domain.UnregisteredEndpointPolicy, error) {
	return domain.ParseUnregisteredEndpointPolicy(a.UnregisteredEndpointPolicy)
}

// Strategy returns the configured admin strategy.
func (a AuthSettings) Strategy() domain.AdminStrategy {
	return domain.AdminStrategy(strings.ToLower(strings.TrimSpace(a.AdminStrategy)))
}

// Validate rejects settings the service cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.App.Port <= 0 {
		errs = append(errs, fmt.Errorf("app.port must be positive, got %d", c.App.Port))
	}
	if strings.TrimSpace(c.Auth.SessionCookie) == "" {
		errs = append(errs, errors.New("auth.session_cookie must not be empty"))
	}
	if _, err := c.Auth.EndpointPolicy(); err != nil {
		errs = append(errs, fmt.Errorf("auth.unregistered_endpoint_policy: %w", err))
	}
	switch c.Auth.Strategy() {
	case domain.AdminStrategyPermissions, domain.AdminStrategyGrant:
	default:
		errs = append(errs, fmt.Errorf("auth.admin_strategy: unknown strategy %q (want permissions or grant)", c.Auth.AdminStrategy))
	}
	if c.ProbeGuard.Enabled {
		if c.ProbeGuard.MaxFailures <= 0 {
			errs = append(errs, errors.New("probe_guard.max_failures must be positive"))
		}
		if c.ProbeGuard.Window <= 0 {
			errs = append(errs, errors.New("probe_guard.window must be positive"))
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers must be set when kafka is enabled"))
	}

	return errors.Join(errs...)
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.shutdown_timeout",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.schema",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"postgres.migrate_on_start",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"kafka.enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"auth.session_cookie",
		"auth.cookie_secure",
		"auth.admin_strategy",
		"auth.unregistered_endpoint_policy",
		"auth.touch_sessions",
		"probe_guard.enabled",
		"probe_guard.max_failures",
		"probe_guard.window",
		"probe_guard.key_prefix",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "trend-diary")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.shutdown_timeout", "10s")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "trend_diary")
	v.SetDefault("postgres.password", "trend_diary")
	v.SetDefault("postgres.database", "trend_diary")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.schema", "trend_diary")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")
	v.SetDefault("postgres.migrate_on_start", false)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "trend-diary")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "trend-diary")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("auth.session_cookie", "sid")
	v.SetDefault("auth.cookie_secure", true)
	v.SetDefault("auth.admin_strategy", string(domain.AdminStrategyPermissions))
	v.SetDefault("auth.unregistered_endpoint_policy", string(domain.UnregisteredEndpointAllow))
	v.SetDefault("auth.touch_sessions", true)

	v.SetDefault("probe_guard.enabled", true)
	v.SetDefault("probe_guard.max_failures", 20)
	v.SetDefault("probe_guard.window", "1m")
	v.SetDefault("probe_guard.key_prefix", "trend_diary:auth_failures")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envPrefix+"_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
