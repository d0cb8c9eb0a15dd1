package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// bindDoc mirrors the subset of packageDefinitionDoc's keys a bound
// system package needs, written directly since the parser's doc type
// is internal to internal/adapters.
type bindDoc struct {
	Name    string   `yaml:"name"`
	Version string   `yaml:"version,omitempty"`
	Tools   []string `yaml:"tools,omitempty"`
}

// newBindCommand writes a minimal package definition file that makes
// an already-installed system tool visible to the repository scanner
// as an ordinary package (§6 `bind`), the same role rez-bind plays for
// system executables rez itself cannot discover from a package index.
func newBindCommand(cfg *RootConfig) *cobra.Command {
	var name, version, outDir string
	var tools []string
	cmd := &cobra.Command{
		Use:   "bind NAME",
		Short: "write a package definition exposing an installed system tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name = args[0]
			if version == "" {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("--version is required")
			}
			if outDir == "" {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("--out is required")
			}
			doc := bindDoc{Name: name, Version: version, Tools: tools}
			data, err := yaml.Marshal(doc)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to create bind output directory").
					WithCause(err)
			}
			path := filepath.Join(outDir, "package.yaml")
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to write bound package definition").
					WithCause(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "bound %s==%s at %s\n", name, version, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "version to bind (required)")
	cmd.Flags().StringVar(&outDir, "out", "", "directory to write package.yaml into, typically one of the repository roots (required)")
	cmd.Flags().StringSliceVar(&tools, "tool", nil, "executable name the bound package exposes (repeatable)")
	return cmd
}
