package cli

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"avular-packages/internal/core"
)

// newContextCommand resolves a set of requirements and saves the
// result as a named context (§6 `context`), the persistent counterpart
// to `solve`.
func newContextCommand(cfg *RootConfig) *cobra.Command {
	flags := &resolveFlags{}
	cmd := &cobra.Command{
		Use:   "context REQUIREMENT...",
		Short: "resolve and save a named context",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.save == "" {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("--save NAME is required")
			}
			ctx, cancel := cancellableContext()
			defer cancel()
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			result, err := svc.Resolve(ctx, flags.toRequest(args))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), core.Summary(result.Context))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
