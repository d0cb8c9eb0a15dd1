package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"avular-packages/internal/app"
)

// newEnvCommand renders a saved context's environment as shell code
// for the requested shell (§6 `env`).
func newEnvCommand(cfg *RootConfig) *cobra.Command {
	var shell string
	cmd := &cobra.Command{
		Use:   "env CONTEXT_NAME",
		Short: "print a saved context's environment as shell code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			result, err := svc.Env(app.EnvRequest{ContextName: args[0], Shell: shell})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), result.Script)
			return nil
		},
	}
	cmd.Flags().StringVar(&shell, "shell", "bash", "shell to emit: bash, zsh, fish, cmd, powershell")
	return cmd
}
