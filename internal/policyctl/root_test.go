package policyctl

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
)

type fakeAccess struct {
	decision domain.Decision
	err      error
	calls    []string
}

func (f *fakeAccess) Check(_ context.Context, _ int64, path, method string) (domain.Decision, error) {
	f.calls = append(f.calls, method+" "+path)
	return f.decision, f.err
}

type harness struct {
	policy   *fakePolicy
	access   *fakeAccess
	migrated int
	opened   int
	closed   int
}

func (h *harness) open(context.Context, string) (*Environment, error) {
	h.opened++
	env := &Environment{
		Policy: h.policy,
		Access: h.access,
		Logger: zap.NewNop(),
		Migrate: func(context.Context) error {
			h.migrated++
			return nil
		},
	}
	env.closers = append(env.closers, func() { h.closed++ })
	return env, nil
}

func run(t *testing.T, h *harness, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(h.open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newHarness() *harness {
	return &harness{policy: newFakePolicy(), access: &fakeAccess{}}
}

func TestMigrateCmd(t *testing.T) {
	h := newHarness()

	out, err := run(t, h, "migrate")
	require.NoError(t, err)
	assert.Equal(t, 1, h.migrated)
	assert.Equal(t, 1, h.closed)
	assert.Contains(t, out, "migrations applied")
}

func TestSyncCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePolicy), 0o600))

	t.Run("applies the file", func(t *testing.T) {
		h := newHarness()
		out, err := run(t, h, "sync", "-f", path)
		require.NoError(t, err)
		assert.Len(t, h.policy.endpoints, 3)
		assert.Contains(t, out, "create endpoint: POST /api/v1/articles")
		assert.Contains(t, out, "8 change(s)")
	})

	t.Run("json output", func(t *testing.T) {
		h := newHarness()
		out, err := run(t, h, "sync", "-f", path, "--dry-run", "-o", "json")
		require.NoError(t, err)
		assert.Contains(t, out, `"dry_run": true`)
		assert.Contains(t, out, `"operation": "create permission"`)
		assert.Empty(t, h.policy.endpoints)
	})

	t.Run("requires a file", func(t *testing.T) {
		h := newHarness()
		_, err := run(t, h, "sync")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `required flag(s) "file" not set`)
		assert.Zero(t, h.opened)
	})

	t.Run("invalid file is rejected before connecting", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("apiVersion: v2\nkind: Policy\n"), 0o600))

		h := newHarness()
		_, err := run(t, h, "sync", "-f", bad)
		require.Error(t, err)
		assert.Zero(t, h.opened)
	})
}

func TestCheckCmd(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		h := newHarness()
		h.access.decision = domain.Decision{Allowed: true, Reason: domain.DecisionReasonSatisfied}

		out, err := run(t, h, "check", "--user", "42", "--path", "/api/v1/roles", "--method", "get")
		require.NoError(t, err)
		assert.Equal(t, []string{"GET /api/v1/roles"}, h.access.calls)
		assert.Contains(t, out, "GET /api/v1/roles for user 42: allow (satisfied)")
	})

	t.Run("denied sets a failing exit", func(t *testing.T) {
		h := newHarness()
		h.access.decision = domain.Decision{Reason: domain.DecisionReasonMissing, Missing: []string{"role.read"}}

		out, err := run(t, h, "check", "--user", "42", "--path", "/api/v1/roles", "-o", "json")
		require.ErrorIs(t, err, ErrDenied)
		assert.Contains(t, out, `"outcome": "deny"`)
		assert.Contains(t, out, `"missing": [`)
	})

	t.Run("resolver error", func(t *testing.T) {
		h := newHarness()
		h.access.err = errors.New("db down")

		_, err := run(t, h, "check", "--user", "1", "--path", "/x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		assert.Equal(t, 1, h.closed)
	})

	t.Run("argument validation", func(t *testing.T) {
		tests := []struct {
			name    string
			args    []string
			wantErr string
		}{
			{"non positive user", []string{"--user", "0", "--path", "/x"}, "--user must be a positive id"},
			{"relative path", []string{"--user", "1", "--path", "x"}, "--path must start with /"},
			{"bad method", []string{"--user", "1", "--path", "/x", "--method", "TRACE"}, `unsupported method "TRACE"`},
			{"bad output", []string{"--user", "1", "--path", "/x", "-o", "yaml"}, `unsupported output format "yaml"`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness()
				_, err := run(t, h, append([]string{"check"}, tt.args...)...)
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Zero(t, h.opened)
			})
		}
	})
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, newHarness(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "policyctl version dev")
}
