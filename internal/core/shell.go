package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/types"
)

// Shell identifies one of the emitters enumerated in §4.6.
type Shell string

const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellCmd        Shell = "cmd"
	ShellPowershell Shell = "powershell"
)

// ShellCode renders env and aliases as an idempotent script for shell:
// re-running the script always yields the same final environment,
// since every emitted line is an absolute assignment, never a
// relative append.
func ShellCode(shell Shell, env map[string]string, aliases []types.AliasEntry) (string, error) {
	switch shell {
	case ShellBash, ShellZsh:
		return posixShellCode(env, aliases), nil
	case ShellFish:
		return fishShellCode(env, aliases), nil
	case ShellCmd:
		return cmdShellCode(env), nil
	case ShellPowershell:
		return powershellCode(env, aliases), nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown shell: " + string(shell))
	}
}

func sortedNames(env map[string]string) []string {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func posixShellCode(env map[string]string, aliases []types.AliasEntry) string {
	var b strings.Builder
	for _, name := range sortedNames(env) {
		fmt.Fprintf(&b, "export %s=%s\n", name, shellQuote(env[name]))
	}
	for _, a := range aliases {
		fmt.Fprintf(&b, "alias %s=%s\n", a.Name, shellQuote(a.Command))
	}
	return b.String()
}

func fishShellCode(env map[string]string, aliases []types.AliasEntry) string {
	var b strings.Builder
	for _, name := range sortedNames(env) {
		fmt.Fprintf(&b, "set -gx %s %s\n", name, shellQuote(env[name]))
	}
	for _, a := range aliases {
		fmt.Fprintf(&b, "alias %s %s\n", a.Name, shellQuote(a.Command))
	}
	return b.String()
}

func cmdShellCode(env map[string]string) string {
	var b strings.Builder
	for _, name := range sortedNames(env) {
		fmt.Fprintf(&b, "set %s=%s\r\n", name, env[name])
	}
	return b.String()
}

func powershellCode(env map[string]string, aliases []types.AliasEntry) string {
	var b strings.Builder
	for _, name := range sortedNames(env) {
		fmt.Fprintf(&b, "$env:%s = %s\n", name, psQuote(env[name]))
	}
	for _, a := range aliases {
		fmt.Fprintf(&b, "function %s { %s @args }\n", a.Name, a.Command)
	}
	return b.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

func psQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
