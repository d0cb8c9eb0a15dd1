package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/types"
)

// ValidatePackage checks the structural invariants a parsed package
// definition must hold before it can enter the repository or the
// solver's candidate pool.
func ValidatePackage(ctx context.Context, p types.Package) error {
	assert.NotEmpty(ctx, p.Name, "package name must be set")
	if p.Name == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name must not be empty")
	}
	if strings.ContainsAny(p.Name, " \t\n@") {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package name contains invalid characters: " + p.Name)
	}
	if p.Version != "" {
		if _, err := ParseVersion(p.Version); err != nil {
			return err
		}
	}
	for _, req := range p.Requires {
		if req.Name == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("requirement in " + p.Name + " is missing a name")
		}
	}
	for _, req := range p.BuildRequires {
		if req.Name == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("build requirement in " + p.Name + " is missing a name")
		}
	}
	return nil
}

// ComputeContentHash derives the sha256 content address for a package
// (§4.3.1) from its name, version, requirement lists, commands, and
// tests — everything that defines the package's observable behavior.
// RootPath and a previously computed ContentHash are excluded so the
// hash is stable across rescans and relocations.
func ComputeContentHash(p types.Package) string {
	h := sha256.New()
	write := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	write(p.Name)
	write(p.Version)
	write(p.Description)

	authors := append([]string(nil), p.Authors...)
	sort.Strings(authors)
	for _, a := range authors {
		write(a)
	}

	writeReqs := func(reqs []types.Requirement) {
		formatted := make([]string, len(reqs))
		for i, r := range reqs {
			formatted[i] = FormatRequirement(r)
		}
		sort.Strings(formatted)
		for _, f := range formatted {
			write(f)
		}
	}
	writeReqs(p.Requires)
	writeReqs(p.BuildRequires)
	for _, variant := range p.Variants {
		writeReqs(variant)
	}

	tools := append([]string(nil), p.Tools...)
	sort.Strings(tools)
	for _, t := range tools {
		write(t)
	}

	write(p.Commands)
	write(p.PreCommands)
	write(p.PostCommands)
	write(p.BuildSystem)

	testNames := make([]string, 0, len(p.Tests))
	for name := range p.Tests {
		testNames = append(testNames, name)
	}
	sort.Strings(testNames)
	for _, name := range testNames {
		write(name)
		write(p.Tests[name])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// WithContentHash returns a copy of p with ContentHash populated.
func WithContentHash(p types.Package) types.Package {
	p.ContentHash = ComputeContentHash(p)
	return p
}
