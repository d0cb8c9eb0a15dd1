package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"avular-packages/internal/app"
)

// newPkgHelpCommand prints a searched package's description and
// authors (§6 `pkg-help`).
func newPkgHelpCommand(cfg *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "pkg-help NAME",
		Short: "print a package's description and authors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cancellableContext()
			defer cancel()
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			result, err := svc.Search(ctx, app.SearchRequest{Name: args[0]})
			if err != nil {
				return err
			}
			if len(result.Packages) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no known package named %s\n", args[0])
				return nil
			}
			for _, pkg := range result.Packages {
				fmt.Fprintf(cmd.OutOrStdout(), "%s==%s\n", pkg.Name, pkg.Version)
				if pkg.Description != "" {
					fmt.Fprintln(cmd.OutOrStdout(), "  "+pkg.Description)
				}
				if len(pkg.Authors) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "  authors: "+joinStrings(pkg.Authors))
				}
			}
			return nil
		},
	}
}

// newPluginsCommand lists the build system adapters registered in
// this binary (§6 `plugins`) — the pluggable components a deployment
// can see without reading its configuration file.
func newPluginsCommand(cfg *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "list the registered build system adapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(svc.BuildSystems))
			for name := range svc.BuildSystems {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func joinStrings(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}
