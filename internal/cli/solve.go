package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"avular-packages/internal/app"
	"avular-packages/internal/core"
	"avular-packages/internal/types"
)

type resolveFlags struct {
	platform        string
	arch            string
	allowPrerelease bool
	strategy        string
	scenario        string
	excludes        []string
	save            string
}

func (f *resolveFlags) register(cmd *cobra.Command) *resolveFlags {
	cmd.Flags().StringVar(&f.platform, "platform", "", "target platform (defaults to the running OS)")
	cmd.Flags().StringVar(&f.arch, "arch", "", "target architecture (defaults to the running arch)")
	cmd.Flags().BoolVar(&f.allowPrerelease, "allow-prerelease", false, "allow prerelease versions to be selected")
	cmd.Flags().StringVar(&f.strategy, "strategy", string(types.ConflictStrategyLatestWins), "conflict strategy: latest_wins, earliest_wins, fail_on_conflict, find_compatible")
	cmd.Flags().StringVar(&f.scenario, "scenario", "", "heuristic scenario hint: fast, thorough, conflict_heavy")
	cmd.Flags().StringSliceVar(&f.excludes, "exclude", nil, "package name never to select (repeatable)")
	cmd.Flags().StringVar(&f.save, "save", "", "save the result as a named context")
	return f
}

func (f *resolveFlags) toRequest(requirements []string) app.ResolveRequest {
	return app.ResolveRequest{
		Requirements:    requirements,
		Excludes:        f.excludes,
		Platform:        f.platform,
		Arch:            f.arch,
		AllowPrerelease: f.allowPrerelease,
		Strategy:        types.ConflictStrategyName(f.strategy),
		Scenario:        f.scenario,
		ContextName:     f.save,
	}
}

// newSolveCommand resolves a set of requirements and prints the
// result without necessarily saving it as a named context — the bare
// solver invocation (§6 `solve`).
func newSolveCommand(cfg *RootConfig) *cobra.Command {
	flags := &resolveFlags{}
	cmd := &cobra.Command{
		Use:   "solve REQUIREMENT...",
		Short: "resolve a set of requirements without entering a context",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			fmt.Fprintf(cmd.OutOrStdout(), "states_explored=%d resolution_ms=%d\n", result.StatesExplored, result.ResolutionMs)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
