package policyctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCmd(OpenEnvironment)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(open Opener) *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "policyctl",
		Short:         "Operate the trend-diary authorization policy",
		Long:          "Apply migrations, provision endpoint permissions from YAML and inspect authorization decisions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading configuration")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "output format: text|json")

	openEnv := func(cmd *cobra.Command) (*Environment, error) {
		return open(cmd.Context(), envFile)
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newMigrateCmd(openEnv),
		newSyncCmd(openEnv),
		newCheckCmd(openEnv),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the policyctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			if format == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"version": version, "commit": commit})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "policyctl version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "text", "json":
		return format, nil
	default:
		return "", fmt.Errorf("unsupported output format %q: use 'text' or 'json'", format)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
