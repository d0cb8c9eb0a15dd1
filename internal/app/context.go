package app

import (
	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/core"
)

// defaultShell is used when EnvRequest.Shell is empty.
const defaultShell = core.ShellBash

// Env loads a saved context and renders it as shell code for the
// requested shell, per §4.6.
func (s Service) Env(req EnvRequest) (EnvResult, error) {
	if req.ContextName == "" {
		return EnvResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("context name is required")
	}
	ctx, err := s.ContextFiles.Load(req.ContextName)
	if err != nil {
		return EnvResult{}, err
	}

	shell := defaultShell
	if req.Shell != "" {
		shell = core.Shell(req.Shell)
	}

	script, err := core.ShellCode(shell, ctx.Env, ctx.Aliases)
	if err != nil {
		return EnvResult{}, err
	}
	return EnvResult{Script: script}, nil
}

// View renders a saved context as the human-readable summary §4.6
// describes for inspection commands.
func (s Service) View(contextName string) (string, error) {
	if contextName == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("context name is required")
	}
	ctx, err := s.ContextFiles.Load(contextName)
	if err != nil {
		return "", err
	}
	return core.Summary(ctx), nil
}
