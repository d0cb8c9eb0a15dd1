package core

import (
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/types"
)

// commandOp is one parsed line of the §4.6 command sublanguage.
type commandOp struct {
	op    string // setenv, appendenv, prependenv, unsetenv, alias
	name  string
	value string
}

// parseCommands splits a package's commands script into operations,
// skipping blank lines and "#" comments.
func parseCommands(script string) ([]commandOp, error) {
	var ops []commandOp
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		switch fields[0] {
		case "setenv", "appendenv", "prependenv":
			if len(fields) != 3 {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fields[0] + " requires NAME and VALUE: " + line)
			}
			ops = append(ops, commandOp{op: fields[0], name: fields[1], value: fields[2]})
		case "unsetenv":
			if len(fields) != 2 {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("unsetenv requires NAME: " + line)
			}
			ops = append(ops, commandOp{op: "unsetenv", name: fields[1]})
		case "alias":
			if len(fields) != 3 {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg("alias requires NAME and COMMAND: " + line)
			}
			ops = append(ops, commandOp{op: "alias", name: fields[1], value: fields[2]})
		default:
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("unrecognized command operation: " + fields[0])
		}
	}
	return ops, nil
}

// pathSeparator is the platform-appropriate separator for
// appendenv/prependenv, per §4.6.
func pathSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

// expandValue applies the §4.6 value expansion tokens in a single
// left-to-right pass: {root}, {version}, {variant_index}, and
// ${NAME} (undefined names expand to empty).
func expandValue(value string, rp types.ResolvedPackage, env map[string]string) string {
	variantStr := ""
	if rp.VariantIndex != nil {
		variantStr = strconv.Itoa(*rp.VariantIndex)
	}
	var b strings.Builder
	i := 0
	for i < len(value) {
		switch {
		case strings.HasPrefix(value[i:], "{root}"):
			b.WriteString(rp.RootPath)
			i += len("{root}")
		case strings.HasPrefix(value[i:], "{version}"):
			b.WriteString(rp.Package.Version)
			i += len("{version}")
		case strings.HasPrefix(value[i:], "{variant_index}"):
			b.WriteString(variantStr)
			i += len("{variant_index}")
		case value[i] == '$' && i+1 < len(value) && value[i+1] == '{':
			end := strings.IndexByte(value[i+2:], '}')
			if end < 0 {
				b.WriteByte(value[i])
				i++
				continue
			}
			name := value[i+2 : i+2+end]
			b.WriteString(env[name])
			i += 2 + end + 1
		default:
			b.WriteByte(value[i])
			i++
		}
	}
	return b.String()
}

// BuildContext applies each resolved package's commands script in
// dependency order, seeded from the process environment, producing
// the final env map and any recorded aliases (§4.6).
func BuildContext(resolved []types.ResolvedPackage, processEnv map[string]string) (map[string]string, []types.AliasEntry, error) {
	env := make(map[string]string, len(processEnv))
	for k, v := range processEnv {
		env[k] = v
	}
	var aliases []types.AliasEntry
	sep := pathSeparator()

	for _, rp := range resolved {
		ops, err := parseCommands(rp.Package.Commands)
		if err != nil {
			return nil, nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid commands for " + rp.Package.Name).
				WithCause(err)
		}
		for _, op := range ops {
			value := expandValue(op.value, rp, env)
			switch op.op {
			case "setenv":
				env[op.name] = value
			case "appendenv":
				if cur, ok := env[op.name]; ok && cur != "" {
					env[op.name] = cur + sep + value
				} else {
					env[op.name] = value
				}
			case "prependenv":
				if cur, ok := env[op.name]; ok && cur != "" {
					env[op.name] = value + sep + cur
				} else {
					env[op.name] = value
				}
			case "unsetenv":
				delete(env, op.name)
			case "alias":
				aliases = append(aliases, types.AliasEntry{Name: op.name, Command: value})
			}
		}
	}
	return env, aliases, nil
}

// Tools returns the tool_name -> path mapping contributed by resolved
// packages' Tools lists, rooted at each package's install root.
func Tools(resolved []types.ResolvedPackage) map[string]string {
	out := map[string]string{}
	for _, rp := range resolved {
		for _, tool := range rp.Package.Tools {
			out[tool] = rp.RootPath
		}
	}
	return out
}

// Summary renders a short human-readable description of a resolved
// context: one line per resolved package, sorted by name.
func Summary(ctx types.ResolvedContext) string {
	names := make([]string, len(ctx.Resolved))
	byName := map[string]types.ResolvedPackage{}
	for i, rp := range ctx.Resolved {
		names[i] = rp.Package.Name
		byName[rp.Package.Name] = rp
	}
	sort.Strings(names)
	var b strings.Builder
	fmt.Fprintf(&b, "resolved context (%d packages, platform=%s arch=%s)\n", len(names), ctx.Platform, ctx.Arch)
	for _, name := range names {
		rp := byName[name]
		variant := ""
		if rp.VariantIndex != nil {
			variant = fmt.Sprintf(" variant=%d", *rp.VariantIndex)
		}
		fmt.Fprintf(&b, "  %s==%s%s\n", rp.Package.Name, rp.Package.Version, variant)
	}
	if systemPackages, ok := ctx.Metadata["system_packages"].(map[string]string); ok && len(systemPackages) > 0 {
		sysNames := make([]string, 0, len(systemPackages))
		for name := range systemPackages {
			sysNames = append(sysNames, name)
		}
		sort.Strings(sysNames)
		b.WriteString("system packages:\n")
		for _, name := range sysNames {
			fmt.Fprintf(&b, "  %s==%s\n", name, systemPackages[name])
		}
	}
	return b.String()
}
