package app

import (
	"context"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/adapters"
	"avular-packages/internal/types"
)

// RepoObjectInfo is the app-facing projection of a content-addressed
// object's manifest.json.
type RepoObjectInfo struct {
	Name         string
	Version      string
	ContentHash  string
	VariantIndex *int
}

// Put stores sourceDir under destRoot's content-addressed layout for
// pkg, returning the content hash it was stored at.
func (s Service) Put(pkg types.Package, sourceDir, destRoot string, variantIndex *int) (string, error) {
	repo := adapters.NewContentAddressedRepo(destRoot)
	return repo.Put(pkg, sourceDir, variantIndex)
}

// Copy duplicates the object at contentHash from sourceRoot to
// destRoot (the `cp` command, §6).
func (s Service) Copy(req RepoCopyRequest) error {
	if req.ContentHash == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("content hash is required")
	}
	src := adapters.NewContentAddressedRepo(req.SourceRoot)
	dst := adapters.NewContentAddressedRepo(req.DestRoot)
	return src.Copy(req.ContentHash, dst)
}

// Move relocates the object at contentHash from sourceRoot to destRoot
// (the `mv` command, §6), via rename with a cross-filesystem fallback.
func (s Service) Move(req RepoCopyRequest) error {
	if req.ContentHash == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("content hash is required")
	}
	src := adapters.NewContentAddressedRepo(req.SourceRoot)
	dst := adapters.NewContentAddressedRepo(req.DestRoot)
	return src.Move(req.ContentHash, dst)
}

// Remove deletes the object at contentHash from root (the `rm`
// command, §6).
func (s Service) Remove(root, contentHash string) error {
	repo := adapters.NewContentAddressedRepo(root)
	return repo.Remove(contentHash)
}

// Info reads the manifest.json sidecar for an object, for `status`
// and diagnostic output.
func (s Service) Info(root, contentHash string) (RepoObjectInfo, error) {
	repo := adapters.NewContentAddressedRepo(root)
	m, err := repo.Manifest(contentHash)
	if err != nil {
		return RepoObjectInfo{}, err
	}
	return RepoObjectInfo{
		Name:         m.Name,
		Version:      m.Version,
		ContentHash:  m.ContentHash,
		VariantIndex: m.VariantIndex,
	}, nil
}

// Search lists every known version of a package name from the
// Repository Scanner's index (the `search` command, §6).
func (s Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	if req.Name == "" {
		names, err := s.Repository.Names(ctx)
		if err != nil {
			return SearchResult{}, err
		}
		sort.Strings(names)
		var out []types.Package
		for _, name := range names {
			candidates, err := s.Repository.Candidates(ctx, name)
			if err != nil {
				return SearchResult{}, err
			}
			out = append(out, candidates...)
		}
		return SearchResult{Packages: out}, nil
	}
	candidates, err := s.Repository.Candidates(ctx, req.Name)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Packages: candidates}, nil
}

// Depends reports which resolved packages in a saved context require
// the named package, directly or transitively (the `depends` command,
// §6): the named package's own Parents chain, walked recursively,
// since Parents already records "who requires me" at each level.
func (s Service) Depends(req DependsRequest) (DependsResult, error) {
	ctx, err := s.ContextFiles.Load(req.ContextName)
	if err != nil {
		return DependsResult{}, err
	}
	byName := map[string]types.ResolvedPackage{}
	for _, rp := range ctx.Resolved {
		byName[rp.Package.Name] = rp
	}
	dependents := map[string]bool{}
	collectAncestors(byName, req.Name, map[string]bool{}, dependents)

	out := make([]string, 0, len(dependents))
	for name := range dependents {
		out = append(out, name)
	}
	sort.Strings(out)
	return DependsResult{Dependents: out}, nil
}

// collectAncestors walks name's Parents chain, adding every package
// that requires name (directly or transitively) into out, guarding
// against cycles with visiting.
func collectAncestors(byName map[string]types.ResolvedPackage, name string, visiting map[string]bool, out map[string]bool) {
	if visiting[name] {
		return
	}
	visiting[name] = true
	rp, ok := byName[name]
	if !ok {
		return
	}
	for _, parentName := range rp.Parents {
		out[parentName] = true
		collectAncestors(byName, parentName, visiting, out)
	}
}

// filesExaminer is implemented by *adapters.FSScanner; Status reports
// its counter when the configured Repository happens to be one.
type filesExaminer interface {
	FilesExamined() int64
}

// Status summarizes what the Repository Scanner currently sees across
// its configured roots (the `status` command, §6).
func (s Service) Status(ctx context.Context) (StatusResult, error) {
	names, err := s.Repository.Names(ctx)
	if err != nil {
		return StatusResult{}, err
	}
	count := 0
	for _, name := range names {
		candidates, err := s.Repository.Candidates(ctx, name)
		if err != nil {
			return StatusResult{}, err
		}
		count += len(candidates)
	}
	var filesExamined int64
	if fe, ok := s.Repository.(filesExaminer); ok {
		filesExamined = fe.FilesExamined()
	}
	return StatusResult{
		RootsScanned:  s.Roots,
		PackageCount:  count,
		FilesExamined: filesExamined,
	}, nil
}

// Diff compares two saved contexts, reporting packages added, removed,
// or changed in version (the `diff` command, §6).
func (s Service) Diff(req DiffRequest) (DiffResult, error) {
	a, err := s.ContextFiles.Load(req.ContextNameA)
	if err != nil {
		return DiffResult{}, err
	}
	b, err := s.ContextFiles.Load(req.ContextNameB)
	if err != nil {
		return DiffResult{}, err
	}

	versionsA := map[string]string{}
	for _, rp := range a.Resolved {
		versionsA[rp.Package.Name] = rp.Package.Version
	}
	versionsB := map[string]string{}
	for _, rp := range b.Resolved {
		versionsB[rp.Package.Name] = rp.Package.Version
	}

	var result DiffResult
	for name, vb := range versionsB {
		va, ok := versionsA[name]
		if !ok {
			result.Added = append(result.Added, name)
		} else if va != vb {
			result.Changed = append(result.Changed, name+": "+va+" -> "+vb)
		}
	}
	for name := range versionsA {
		if _, ok := versionsB[name]; !ok {
			result.Removed = append(result.Removed, name)
		}
	}
	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	sort.Strings(result.Changed)
	return result, nil
}
