package adapters

import (
	"encoding/json"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"avular-packages/internal/core"
	"avular-packages/internal/types"
)

// packageDefinitionDoc is the common shape of the YAML/YML/JSON
// package definition forms (§6): a mapping with the listed keys.
type packageDefinitionDoc struct {
	Name          string              `yaml:"name" json:"name"`
	Version       string              `yaml:"version" json:"version"`
	Description   string              `yaml:"description" json:"description"`
	Authors       []string            `yaml:"authors" json:"authors"`
	Requires      []string            `yaml:"requires" json:"requires"`
	BuildRequires []string            `yaml:"build_requires" json:"build_requires"`
	Variants      [][]string          `yaml:"variants" json:"variants"`
	Tools         []string            `yaml:"tools" json:"tools"`
	Commands      string              `yaml:"commands" json:"commands"`
	PreCommands   string              `yaml:"pre_commands" json:"pre_commands"`
	PostCommands  string              `yaml:"post_commands" json:"post_commands"`
	Tests         map[string]string   `yaml:"tests" json:"tests"`
	UUID          string              `yaml:"uuid" json:"uuid"`
	BuildSystem   string              `yaml:"build_system" json:"build_system"`
}

// ParsePackageDefinition parses one of the four equivalent package
// definition file forms (§6) by file suffix. The Python form is parsed
// as a restricted subset of top-level assignments; no code executes.
func ParsePackageDefinition(path string, data []byte) (types.Package, error) {
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		var doc packageDefinitionDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return types.Package{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to parse package definition " + path).
				WithCause(err)
		}
		return docToPackage(doc)
	case strings.HasSuffix(path, ".json"):
		var doc packageDefinitionDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return types.Package{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to parse package definition " + path).
				WithCause(err)
		}
		return docToPackage(doc)
	case strings.HasSuffix(path, ".py"):
		doc, err := parsePythonSubset(string(data))
		if err != nil {
			return types.Package{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to parse package definition " + path).
				WithCause(err)
		}
		return docToPackage(doc)
	default:
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unrecognized package definition suffix: " + path)
	}
}

func docToPackage(doc packageDefinitionDoc) (types.Package, error) {
	if strings.TrimSpace(doc.Name) == "" {
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package definition missing required 'name' field")
	}
	requires, err := parseRequirementList(doc.Requires)
	if err != nil {
		return types.Package{}, err
	}
	buildRequires, err := parseRequirementList(doc.BuildRequires)
	if err != nil {
		return types.Package{}, err
	}
	variants := make([][]types.Requirement, len(doc.Variants))
	for i, v := range doc.Variants {
		parsed, err := parseRequirementList(v)
		if err != nil {
			return types.Package{}, err
		}
		variants[i] = parsed
	}
	return types.Package{
		Name:          doc.Name,
		Version:       doc.Version,
		Description:   doc.Description,
		Authors:       doc.Authors,
		Requires:      requires,
		BuildRequires: buildRequires,
		Variants:      variants,
		Tools:         doc.Tools,
		Commands:      doc.Commands,
		PreCommands:   doc.PreCommands,
		PostCommands:  doc.PostCommands,
		Tests:         doc.Tests,
		UUID:          doc.UUID,
		BuildSystem:   doc.BuildSystem,
	}, nil
}

func parseRequirementList(raw []string) ([]types.Requirement, error) {
	out := make([]types.Requirement, 0, len(raw))
	for _, r := range raw {
		req, err := core.ParseRequirement(r)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

// parsePythonSubset recognizes top-level "key = literal" assignments
// in the restricted Python package definition form (§6): string,
// list-of-string, and dict-of-string literals only. Anything else
// (function calls, imports, control flow) is rejected rather than
// executed.
func parsePythonSubset(src string) (packageDefinitionDoc, error) {
	var doc packageDefinitionDoc
	lines := splitPythonStatements(src)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return doc, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("unsupported python package definition statement: " + line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if err := assignPythonField(&doc, key, value); err != nil {
			return doc, err
		}
	}
	return doc, nil
}

// splitPythonStatements joins bracket-continued logical lines so a
// list or dict literal spanning multiple physical lines is still
// handled as one assignment.
func splitPythonStatements(src string) []string {
	var out []string
	var current strings.Builder
	depth := 0
	for _, line := range strings.Split(src, "\n") {
		current.WriteString(line)
		depth += strings.Count(line, "[") + strings.Count(line, "{") - strings.Count(line, "]") - strings.Count(line, "}")
		if depth > 0 {
			current.WriteByte('\n')
			continue
		}
		out = append(out, current.String())
		current.Reset()
		depth = 0
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

func assignPythonField(doc *packageDefinitionDoc, key, value string) error {
	switch key {
	case "name":
		doc.Name = pythonStringLiteral(value)
	case "version":
		doc.Version = pythonStringLiteral(value)
	case "description":
		doc.Description = pythonStringLiteral(value)
	case "uuid":
		doc.UUID = pythonStringLiteral(value)
	case "build_system":
		doc.BuildSystem = pythonStringLiteral(value)
	case "commands":
		doc.Commands = pythonStringLiteral(value)
	case "pre_commands":
		doc.PreCommands = pythonStringLiteral(value)
	case "post_commands":
		doc.PostCommands = pythonStringLiteral(value)
	case "authors":
		list, err := pythonStringList(value)
		if err != nil {
			return err
		}
		doc.Authors = list
	case "requires":
		list, err := pythonStringList(value)
		if err != nil {
			return err
		}
		doc.Requires = list
	case "build_requires":
		list, err := pythonStringList(value)
		if err != nil {
			return err
		}
		doc.BuildRequires = list
	case "tools":
		list, err := pythonStringList(value)
		if err != nil {
			return err
		}
		doc.Tools = list
	case "variants":
		variants, err := pythonListOfStringLists(value)
		if err != nil {
			return err
		}
		doc.Variants = variants
	case "tests":
		dict, err := pythonStringDict(value)
		if err != nil {
			return err
		}
		doc.Tests = dict
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported python package definition key: " + key)
	}
	return nil
}

func pythonStringLiteral(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		if (value[0] == '\'' && value[len(value)-1] == '\'') || (value[0] == '"' && value[len(value)-1] == '"') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

func pythonStringList(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("expected a list literal: " + value)
	}
	inner := strings.TrimSpace(value[1 : len(value)-1])
	if inner == "" {
		return nil, nil
	}
	var out []string
	for _, item := range splitPythonListItems(inner) {
		out = append(out, pythonStringLiteral(strings.TrimSpace(item)))
	}
	return out, nil
}

func pythonListOfStringLists(value string) ([][]string, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("expected a list literal: " + value)
	}
	inner := strings.TrimSpace(value[1 : len(value)-1])
	if inner == "" {
		return nil, nil
	}
	var out [][]string
	for _, item := range splitPythonListItems(inner) {
		list, err := pythonStringList(strings.TrimSpace(item))
		if err != nil {
			return nil, err
		}
		out = append(out, list)
	}
	return out, nil
}

func pythonStringDict(value string) (map[string]string, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "{") || !strings.HasSuffix(value, "}") {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("expected a dict literal: " + value)
	}
	inner := strings.TrimSpace(value[1 : len(value)-1])
	out := map[string]string{}
	if inner == "" {
		return out, nil
	}
	for _, item := range splitPythonListItems(inner) {
		k, v, ok := strings.Cut(item, ":")
		if !ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("malformed dict entry: " + item)
		}
		out[pythonStringLiteral(strings.TrimSpace(k))] = pythonStringLiteral(strings.TrimSpace(v))
	}
	return out, nil
}

// splitPythonListItems splits a literal's inner text on top-level
// commas, respecting nested brackets and quoted strings.
func splitPythonListItems(inner string) []string {
	var items []string
	depth := 0
	inString := byte(0)
	start := 0
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case inString != 0:
			if c == inString {
				inString = 0
			}
		case c == '\'' || c == '"':
			inString = c
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			items = append(items, inner[start:i])
			start = i + 1
		}
	}
	if start < len(inner) {
		items = append(items, inner[start:])
	}
	return items
}
