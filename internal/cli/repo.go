package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"avular-packages/internal/app"
)

// newCpCommand duplicates a content-addressed object between two
// repository roots (§6 `cp`).
func newCpCommand(cfg *RootConfig) *cobra.Command {
	var sourceRoot, destRoot string
	cmd := &cobra.Command{
		Use:   "cp CONTENT_HASH",
		Short: "copy a content-addressed object between repository roots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			return svc.Copy(app.RepoCopyRequest{ContentHash: args[0], SourceRoot: sourceRoot, DestRoot: destRoot})
		},
	}
	cmd.Flags().StringVar(&sourceRoot, "from", "", "source repository root (required)")
	cmd.Flags().StringVar(&destRoot, "to", "", "destination repository root (required)")
	return cmd
}

// newMvCommand relocates a content-addressed object between two
// repository roots (§6 `mv`).
func newMvCommand(cfg *RootConfig) *cobra.Command {
	var sourceRoot, destRoot string
	cmd := &cobra.Command{
		Use:   "mv CONTENT_HASH",
		Short: "move a content-addressed object between repository roots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			return svc.Move(app.RepoCopyRequest{ContentHash: args[0], SourceRoot: sourceRoot, DestRoot: destRoot})
		},
	}
	cmd.Flags().StringVar(&sourceRoot, "from", "", "source repository root (required)")
	cmd.Flags().StringVar(&destRoot, "to", "", "destination repository root (required)")
	return cmd
}

// newRmCommand removes a content-addressed object from a repository
// root (§6 `rm`).
func newRmCommand(cfg *RootConfig) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "rm CONTENT_HASH",
		Short: "remove a content-addressed object from a repository root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			return svc.Remove(root, args[0])
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "repository root (required)")
	return cmd
}

// newStatusCommand summarizes what the repository scanner currently
// sees across its configured roots (§6 `status`).
func newStatusCommand(cfg *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "summarize the repository scanner's current view",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cancellableContext()
			defer cancel()
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			result, err := svc.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "roots: %v\npackages: %d\nfiles examined: %d\n",
				result.RootsScanned, result.PackageCount, result.FilesExamined)
			return nil
		},
	}
}
