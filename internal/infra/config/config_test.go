package config

import (
	"testing"
	"time"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Auth.SessionCookie != "sid" {
		t.Fatalf("expected default session cookie sid, got %q", cfg.Auth.SessionCookie)
	}

	policy, err := cfg.Auth.EndpointPolicy()
	if err != nil {
		t.Fatalf("EndpointPolicy returned error: %v", err)
	}
	if policy != domain.UnregisteredEndpointAllow {
		t.Fatalf("expected fail-open default, got %q", policy)
	}

	if cfg.Auth.Strategy() != domain.AdminStrategyPermissions {
		t.Fatalf("expected permissions strategy by default, got %q", cfg.Auth.Strategy())
	}

	if cfg.ProbeGuard.Window != time.Minute {
		t.Fatalf("expected probe guard window 1m, got %v", cfg.ProbeGuard.Window)
	}
}

func TestLoadReadsPrefixedEnv(t *testing.T) {
	t.Setenv("TREND_DIARY_AUTH_UNREGISTERED_ENDPOINT_POLICY", "deny")
	t.Setenv("TREND_DIARY_AUTH_ADMIN_STRATEGY", "grant")
	t.Setenv("PROBE_GUARD_MAX_FAILURES", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	policy, _ := cfg.Auth.EndpointPolicy()
	if policy != domain.UnregisteredEndpointDeny {
		t.Fatalf("expected deny policy, got %q", policy)
	}
	if cfg.Auth.Strategy() != domain.AdminStrategyGrant {
		t.Fatalf("expected grant strategy, got %q", cfg.Auth.Strategy())
	}
	if cfg.ProbeGuard.MaxFailures != 7 {
		t.Fatalf("expected max failures 7 from plain env name, got %d", cfg.ProbeGuard.MaxFailures)
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"policy", func(c *AppConfig) { c.Auth.UnregisteredEndpointPolicy = "maybe" }},
		{"empty policy", func(c *AppConfig) { c.Auth.UnregisteredEndpointPolicy = "" }},
		{"strategy", func(c *AppConfig) { c.Auth.AdminStrategy = "root" }},
		{"cookie", func(c *AppConfig) { c.Auth.SessionCookie = " " }},
		{"probe guard", func(c *AppConfig) { c.ProbeGuard.MaxFailures = 0 }},
		{"kafka", func(c *AppConfig) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func validConfig() *AppConfig {
	return &AppConfig{
		App: AppSettings{Port: 8080},
		Auth: AuthSettings{
			SessionCookie:              "sid",
			AdminStrategy:              "permissions",
			UnregisteredEndpointPolicy: "allow",
		},
		ProbeGuard: ProbeGuardSettings{Enabled: true, MaxFailures: 5, Window: time.Minute},
	}
}
