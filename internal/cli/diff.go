package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"avular-packages/internal/app"
)

// newDiffCommand compares two saved contexts (§6 `diff`).
func newDiffCommand(cfg *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "diff CONTEXT_A CONTEXT_B",
		Short: "compare two saved contexts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			result, err := svc.Diff(app.DiffRequest{ContextNameA: args[0], ContextNameB: args[1]})
			if err != nil {
				return err
			}
			for _, name := range result.Added {
				fmt.Fprintf(cmd.OutOrStdout(), "+ %s\n", name)
			}
			for _, name := range result.Removed {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", name)
			}
			for _, change := range result.Changed {
				fmt.Fprintf(cmd.OutOrStdout(), "~ %s\n", change)
			}
			return nil
		},
	}
}
