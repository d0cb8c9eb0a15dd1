package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"avular-packages/internal/core"
)

// newReleaseCommand builds a package and publishes its installed
// output into a content-addressed repository root (§6 `release`): the
// build step of `build` followed by a `cp`-shaped Put.
func newReleaseCommand(cfg *RootConfig) *cobra.Command {
	flags := &buildFlags{}
	var repoRoot string
	cmd := &cobra.Command{
		Use:   "release",
		Short: "build a package and publish it into a repository root",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cancellableContext()
			defer cancel()
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			req, err := flags.loadPackage()
			if err != nil {
				return err
			}
			if _, err := svc.Build(ctx, req); err != nil {
				return err
			}
			req.Package = core.WithContentHash(req.Package)
			contentHash, err := svc.Put(req.Package, req.InstallPath, repoRoot, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "released %s==%s as %s\n", req.Package.Name, req.Package.Version, contentHash)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&repoRoot, "repo", "", "repository root to publish into (required)")
	return cmd
}
