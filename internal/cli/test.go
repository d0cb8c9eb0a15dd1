package cli

import (
	"os/exec"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"avular-packages/internal/app"
)

// newTestCommand runs TEST_NAME as a shell command line after a saved
// context's rendered environment script (§6 `test`). The name is not
// looked up in the resolved packages' tests maps.
func newTestCommand(cfg *RootConfig) *cobra.Command {
	var contextName, shell, testName string
	cmd := &cobra.Command{
		Use:   "test TEST_NAME",
		Short: "run a package test command inside a saved context's environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			testName = args[0]
			ctx, cancel := cancellableContext()
			defer cancel()
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			envResult, err := svc.Env(app.EnvRequest{ContextName: contextName, Shell: shell})
			if err != nil {
				return err
			}

			script := envResult.Script + "\n" + testName
			c := exec.CommandContext(ctx, "sh", "-c", script)
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()
			if err := c.Run(); err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("test command failed: " + testName).
					WithCause(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contextName, "context", "", "saved context to run the test in (required)")
	cmd.Flags().StringVar(&shell, "shell", "bash", "shell to render the context's environment with")
	return cmd
}
