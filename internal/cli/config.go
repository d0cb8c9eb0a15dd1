package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// newConfigCommand prints the effective layered configuration
// (flags > AVPKG_* env > avular-packages.yaml > defaults), per §4.9.3.
func newConfigCommand(cfg *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(viper.AllSettings())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
