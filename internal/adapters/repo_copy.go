package adapters

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/types"
)

// objectManifest is the manifest.json sidecar written alongside a
// package's files in the content-addressed repository layout (§6).
type objectManifest struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	ContentHash  string `json:"content_hash"`
	VariantIndex *int   `json:"variant_index"`
}

// ContentAddressedRepo implements cp/mv over a repository root laid
// out as objects/<sha256 prefix2>/<sha256>/ directories (§6), grounded
// on the teacher's copyFile/copyDebs pattern in package_build.go
// (open-source, io.Copy, close both ends) generalized from "flat
// directory of .deb files" to "one directory per content hash."
type ContentAddressedRepo struct {
	Root string
}

func NewContentAddressedRepo(root string) ContentAddressedRepo {
	return ContentAddressedRepo{Root: root}
}

// objectDir returns the directory a package with the given content
// hash lives in under Root, without creating it.
func (r ContentAddressedRepo) objectDir(contentHash string) (string, error) {
	if len(contentHash) < 2 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("content hash too short: " + contentHash)
	}
	return filepath.Join(r.Root, "objects", contentHash[:2], contentHash), nil
}

// Put copies every file under sourceDir into the object directory for
// pkg, writing its manifest.json alongside. Existing content at the
// same hash is left untouched (content addressing makes this a no-op
// rewrite, not a conflict) — same idempotence guarantee the teacher's
// own idempotent-write helpers rely on elsewhere in the corpus.
func (r ContentAddressedRepo) Put(pkg types.Package, sourceDir string, variantIndex *int) (string, error) {
	dir, err := r.objectDir(pkg.ContentHash)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dir); err == nil {
		return dir, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create object directory").
			WithCause(err)
	}
	if err := copyTree(sourceDir, dir); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	manifest := objectManifest{
		Name:         pkg.Name,
		Version:      pkg.Version,
		ContentHash:  pkg.ContentHash,
		VariantIndex: variantIndex,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode object manifest").
			WithCause(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write object manifest").
			WithCause(err)
	}
	return dir, nil
}

// Copy (`cp`) duplicates the object directory for contentHash into a
// destination repository root, recomputing nothing — the hash is the
// identity, so the destination's manifest.json is byte-identical.
func (r ContentAddressedRepo) Copy(contentHash string, dest ContentAddressedRepo) error {
	srcDir, err := r.objectDir(contentHash)
	if err != nil {
		return err
	}
	destDir, err := dest.objectDir(contentHash)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create destination object directory").
			WithCause(err)
	}
	return copyTree(srcDir, destDir)
}

// Move (`mv`) relocates an object directory within or across
// repository roots, falling back to copy-then-remove when os.Rename
// fails across filesystems (e.g. EXDEV).
func (r ContentAddressedRepo) Move(contentHash string, dest ContentAddressedRepo) error {
	srcDir, err := r.objectDir(contentHash)
	if err != nil {
		return err
	}
	destDir, err := dest.objectDir(contentHash)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create destination parent directory").
			WithCause(err)
	}
	if err := os.Rename(srcDir, destDir); err == nil {
		return nil
	}
	if err := r.Copy(contentHash, dest); err != nil {
		return err
	}
	if err := os.RemoveAll(srcDir); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to remove source object directory after move").
			WithCause(err)
	}
	return nil
}

// Remove (`rm`) deletes an object directory outright.
func (r ContentAddressedRepo) Remove(contentHash string) error {
	dir, err := r.objectDir(contentHash)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to remove object directory").
			WithCause(err)
	}
	return nil
}

// Manifest loads the manifest.json for contentHash.
func (r ContentAddressedRepo) Manifest(contentHash string) (objectManifest, error) {
	dir, err := r.objectDir(contentHash)
	if err != nil {
		return objectManifest{}, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return objectManifest{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("object manifest not found for %s", contentHash)).
			WithCause(err)
	}
	var manifest objectManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return objectManifest{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse object manifest").
			WithCause(err)
	}
	return manifest, nil
}

func copyTree(srcDir, destDir string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("source directory not found: " + srcDir).
			WithCause(err)
	}
	for _, entry := range entries {
		srcPath := filepath.Join(srcDir, entry.Name())
		destPath := filepath.Join(destDir, entry.Name())
		if entry.IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to create directory " + destPath).
					WithCause(err)
			}
			if err := copyTree(srcPath, destPath); err != nil {
				return err
			}
			continue
		}
		if err := copyRepoFile(srcPath, destPath); err != nil {
			return err
		}
	}
	return nil
}

func copyRepoFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to open source file " + srcPath).
			WithCause(err)
	}
	defer src.Close()
	dest, err := os.Create(destPath)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create destination file " + destPath).
			WithCause(err)
	}
	defer dest.Close()
	if _, err := io.Copy(dest, src); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to copy file to " + destPath).
			WithCause(err)
	}
	return nil
}
