package adapters

import (
	"context"
	"os"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"avular-packages/internal/ports"
)

// systemIndexDoc is the on-disk shape of the system package index file
// (§6 "system package index file"). The teacher's own index carries a
// richer per-version Depends/Pre-Depends/Provides record
// (types.AptPackageVersion); ports.SystemIndex only needs a flat
// version list per package (see DESIGN.md's note on the simplified
// apt/pip solver scope), so this file keeps the same top-level key
// names (apt_packages/pip_packages) but flattens each entry's value to
// a version string.
type systemIndexDoc struct {
	AptPackages map[string][]string `yaml:"apt_packages"`
	PipPackages map[string][]string `yaml:"pip_packages"`
}

// FileSystemIndex implements ports.SystemIndex by loading a YAML
// system index file once and serving lookups from memory, grounded on
// the teacher's `spec_file.go` yaml.Unmarshal-into-struct pattern.
type FileSystemIndex struct {
	mu  sync.RWMutex
	doc systemIndexDoc
}

// LoadFileSystemIndex reads and parses the system index file at path.
func LoadFileSystemIndex(path string) (*FileSystemIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("system package index file not found: " + path).
			WithCause(err)
	}
	var doc systemIndexDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse system package index file: " + path).
			WithCause(err)
	}
	return &FileSystemIndex{doc: doc}, nil
}

func (f *FileSystemIndex) AptPackages(ctx context.Context, name string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.doc.AptPackages[name]...), nil
}

func (f *FileSystemIndex) PipPackages(ctx context.Context, name string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.doc.PipPackages[name]...), nil
}

// Reload re-reads the index file in place, allowing a long-lived
// process to pick up an updated system index without restarting.
func (f *FileSystemIndex) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("system package index file not found: " + path).
			WithCause(err)
	}
	var doc systemIndexDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse system package index file: " + path).
			WithCause(err)
	}
	f.mu.Lock()
	f.doc = doc
	f.mu.Unlock()
	return nil
}

var _ ports.SystemIndex = (*FileSystemIndex)(nil)
