package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"avular-packages/internal/app"
)

// newDependsCommand reports which packages in a saved context depend
// on the named package (§6 `depends`).
func newDependsCommand(cfg *RootConfig) *cobra.Command {
	var contextName string
	cmd := &cobra.Command{
		Use:   "depends NAME",
		Short: "list packages in a saved context that depend on NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			result, err := svc.Depends(app.DependsRequest{ContextName: contextName, Name: args[0]})
			if err != nil {
				return err
			}
			for _, name := range result.Dependents {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contextName, "context", "", "saved context to query (required)")
	return cmd
}
