package adapters

import (
	"context"
	"os"
	"os/exec"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/ports"
	"avular-packages/internal/shared"
)

// ExecBuildSystem invokes a package's build_system as an external
// command, grounded on the teacher's exec.Command/CombinedOutput +
// shared.CommandError idiom (internal/adapters/package_build.go's
// pipInstall/buildDeb), generalized from hardcoded "python3 -m pip"/
// "dpkg-deb" invocations to an arbitrary named executable resolved
// from PATH plus the args the package definition and request supply.
type ExecBuildSystem struct {
	name       string
	executable string
}

// NewExecBuildSystem builds a BuildSystem identified by name that
// invokes executable as a subprocess.
func NewExecBuildSystem(name, executable string) ExecBuildSystem {
	return ExecBuildSystem{name: name, executable: executable}
}

func (b ExecBuildSystem) Name() string { return b.name }

// Build runs the configured executable with req.Args, in req.BuildPath,
// with the REZ_BUILD_* environment variables set alongside req.Env
// (§4.7). Cancellation via ctx.Done propagates to the child process.
func (b ExecBuildSystem) Build(ctx context.Context, req ports.BuildRequest) error {
	cmd := exec.CommandContext(ctx, b.executable, req.Args...)
	cmd.Dir = req.BuildPath
	cmd.Env = buildEnviron(req)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(b.name + " build failed").
			WithCause(shared.CommandError(output, err))
	}
	return nil
}

// buildEnviron composes the child process environment: the current
// process environment, REZ_BUILD_* variables describing the package
// under build, then req.Env last so a resolved context's own
// environment wins on conflict.
func buildEnviron(req ports.BuildRequest) []string {
	env := map[string]string{
		"REZ_BUILD_PACKAGE_NAME":    req.Package.Name,
		"REZ_BUILD_PACKAGE_VERSION": req.Package.Version,
		"REZ_BUILD_SOURCE_PATH":     req.SourcePath,
		"REZ_BUILD_PATH":            req.BuildPath,
		"REZ_BUILD_INSTALL_PATH":    req.InstallPath,
	}
	for k, v := range req.Env {
		env[k] = v
	}
	names := make([]string, 0, len(env))
	for k := range env {
		names = append(names, k)
	}
	sort.Strings(names)

	out := append([]string(nil), os.Environ()...)
	for _, name := range names {
		out = append(out, name+"="+env[name])
	}
	return out
}

var _ ports.BuildSystem = ExecBuildSystem{}
