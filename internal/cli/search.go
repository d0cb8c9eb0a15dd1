package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"avular-packages/internal/app"
)

// newSearchCommand lists known versions of a package name, or every
// package known to the repository when no name is given (§6 `search`).
func newSearchCommand(cfg *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "search [NAME]",
		Short: "list packages known to the repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cancellableContext()
			defer cancel()
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			result, err := svc.Search(ctx, app.SearchRequest{Name: name})
			if err != nil {
				return err
			}
			for _, pkg := range result.Packages {
				fmt.Fprintf(cmd.OutOrStdout(), "%s==%s\n", pkg.Name, pkg.Version)
			}
			return nil
		},
	}
}
