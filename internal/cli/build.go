package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"avular-packages/internal/adapters"
	"avular-packages/internal/app"
)

type buildFlags struct {
	packageFile string
	sourcePath  string
	buildPath   string
	installPath string
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.packageFile, "package-file", "", "package definition file path (required)")
	cmd.Flags().StringVar(&f.sourcePath, "source", ".", "package source directory")
	cmd.Flags().StringVar(&f.buildPath, "build-path", "build", "build working directory")
	cmd.Flags().StringVar(&f.installPath, "install-path", "install", "install destination directory")
}

func (f *buildFlags) loadPackage() (app.BuildRequest, error) {
	data, err := os.ReadFile(f.packageFile)
	if err != nil {
		return app.BuildRequest{}, err
	}
	pkg, err := adapters.ParsePackageDefinition(f.packageFile, data)
	if err != nil {
		return app.BuildRequest{}, err
	}
	return app.BuildRequest{
		Package:     pkg,
		SourcePath:  f.sourcePath,
		BuildPath:   f.buildPath,
		InstallPath: f.installPath,
	}, nil
}

// newBuildCommand invokes the build system named by a package's
// build_system field, after resolving its build_requires (§6 `build`,
// §4.7/§4.7.1).
func newBuildCommand(cfg *RootConfig) *cobra.Command {
	flags := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "build a package in a derived environment",
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
			result, err := svc.Build(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "built %s==%s\n", req.Package.Name, req.Package.Version)
			if len(result.ToolchainVersions) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "toolchain packages:")
				for name, v := range result.ToolchainVersions {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s=%s\n", name, v)
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
