package policyctl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

// ErrDenied is returned by check when the decision is deny, so scripts can rely on the exit code.
var ErrDenied = errors.New("access denied")

type checkResult struct {
	UserID  int64    `json:"user_id"`
	Path    string   `json:"path"`
	Method  string   `json:"method"`
	Outcome string   `json:"outcome"`
	Reason  string   `json:"reason"`
	Missing []string `json:"missing,omitempty"`
}

func newCheckCmd(open func(*cobra.Command) (*Environment, error)) *cobra.Command {
	var (
		userID int64
		path   string
		method string
	)

	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Evaluate whether a user may call an endpoint",
		Example: "  policyctl check --user 42 --path /api/v1/roles --method GET",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			if userID <= 0 {
				return errors.New("--user must be a positive id")
			}
			if !strings.HasPrefix(domain.NormalizePath(path), "/") {
				return errors.New("--path must start with /")
			}
			if !usecase.IsAllowedMethod(method) {
				return fmt.Errorf("unsupported method %q", method)
			}

			env, err := open(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			path = domain.NormalizePath(path)
			method = domain.NormalizeMethod(method)

			decision, err := env.Access.Check(cmd.Context(), userID, path, method)
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}

			result := checkResult{
				UserID:  userID,
				Path:    path,
				Method:  method,
				Outcome: decision.Outcome(),
				Reason:  string(decision.Reason),
				Missing: decision.Missing,
			}
			if format == "json" {
				if err := printJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s for user %d: %s (%s)\n", method, path, userID, result.Outcome, result.Reason)
				if len(result.Missing) > 0 {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "missing: %s\n", strings.Join(result.Missing, ", "))
				}
			}

			if !decision.Allowed {
				return ErrDenied
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id (required)")
	cmd.Flags().StringVar(&path, "path", "", "endpoint path, as registered (required)")
	cmd.Flags().StringVar(&method, "method", "GET", "HTTP method")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}
