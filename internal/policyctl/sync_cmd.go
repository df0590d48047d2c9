package policyctl

import (
	"github.com/spf13/cobra"
)

func newSyncCmd(open func(*cobra.Command) (*Environment, error)) *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Provision permissions and endpoint requirements from a policy file",
		Long: `Creates missing permissions and endpoints declared in the policy file and
replaces the requirement set of every listed endpoint. Nothing is deleted.`,
		Example: "  policyctl sync -f policy.yaml --dry-run",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			doc, err := LoadPolicyFile(file)
			if err != nil {
				return err
			}

			env, err := open(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			report, err := Sync(cmd.Context(), env.Policy, doc, dryRun)
			if report != nil {
				if format == "json" {
					if perr := printJSON(cmd.OutOrStdout(), report); perr != nil && err == nil {
						err = perr
					}
				} else {
					report.Print(cmd.OutOrStdout())
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "policy file to apply (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the changes without applying them")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
