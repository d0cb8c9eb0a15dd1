package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newViewCommand prints a saved context's human-readable summary
// (§6 `view`).
func newViewCommand(cfg *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "view CONTEXT_NAME",
		Short: "print a saved context's summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			summary, err := svc.View(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}
