package adapters

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/mmap"

	"avular-packages/internal/core"
	"avular-packages/internal/ports"
	"avular-packages/internal/types"
)

// mmapThresholdBytes is the file-size cutoff above which the scanner
// memory-maps a definition file instead of reading it whole (§4.3).
const mmapThresholdBytes = 64 * 1024

// definitionSuffixes are the package definition file extensions the
// scanner recognizes, per §6.
var definitionSuffixes = []string{".yaml", ".yml", ".json", ".py"}

// excludedScanDirs are directory names the scanner never descends
// into, mirroring the teacher's workspace walker's skip list but
// generalized away from ROS-specific build layouts.
var excludedScanDirs = map[string]bool{
	".git":    true,
	"build":   true,
	"install": true,
	".cache":  true,
}

type scanCacheEntry struct {
	modTime int64
	size    int64
	pkg     types.Package
}

// FSScanner implements ports.Repository over one or more filesystem
// roots. It keeps an in-memory index keyed by package name, refreshed
// by Refresh; per-file results are cached by (path, mtime, size) so an
// unmodified file is never reparsed.
type FSScanner struct {
	roots       []string
	workerCount int

	mu           sync.RWMutex
	byName       map[string][]types.Package
	scanCache    map[string]scanCacheEntry
	filesExamined int64
}

// NewFSScanner creates a scanner over the given root directories. A
// zero workerCount defaults to GOMAXPROCS.
func NewFSScanner(roots []string, workerCount int) *FSScanner {
	if workerCount <= 0 {
		workerCount = runtime.GOMAXPROCS(0)
	}
	return &FSScanner{
		roots:       roots,
		workerCount: workerCount,
		byName:      map[string][]types.Package{},
		scanCache:   map[string]scanCacheEntry{},
	}
}

// FilesExamined returns the cumulative count of files parsed (not
// served from the scan cache) across the scanner's lifetime, the
// counter the "re-scan after touching one file" property observes.
func (s *FSScanner) FilesExamined() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filesExamined
}

func (s *FSScanner) Candidates(ctx context.Context, name string) ([]types.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Package(nil), s.byName[name]...), nil
}

func (s *FSScanner) Get(ctx context.Context, name, version string) (types.Package, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.byName[name] {
		if version == "" || p.Version == version {
			return p, true, nil
		}
	}
	return types.Package{}, false, nil
}

func (s *FSScanner) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byName))
	for name := range s.byName {
		out = append(out, name)
	}
	return out, nil
}

// Refresh walks every root with a bounded worker pool, parsing each
// discovered definition file (reusing the scan cache when the file's
// mtime and size are unchanged) and rebuilding the by-name index.
func (s *FSScanner) Refresh(ctx context.Context) error {
	paths, err := s.discoverPaths()
	if err != nil {
		return err
	}

	type result struct {
		pkg types.Package
		err error
	}
	jobs := make(chan string)
	results := make(chan result)
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				select {
				case <-ctx.Done():
					results <- result{err: ctx.Err()}
					continue
				default:
				}
				pkg, err := s.parseWithCache(path)
				results <- result{pkg: pkg, err: err}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, p := range paths {
			jobs <- p
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	byName := map[string][]types.Package{}
	var firstErr error
	for r := range results {
		if r.err != nil {
			log.Ctx(ctx).Warn().Err(r.err).Msg("package definition parse failed")
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		byName[r.pkg.Name] = append(byName[r.pkg.Name], r.pkg)
	}

	s.mu.Lock()
	s.byName = byName
	s.mu.Unlock()

	if firstErr != nil && len(byName) == 0 {
		return firstErr
	}
	return nil
}

func (s *FSScanner) discoverPaths() ([]string, error) {
	var paths []string
	for _, root := range s.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if excludedScanDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if hasDefinitionSuffix(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to scan repository root " + root).
				WithCause(err)
		}
	}
	return paths, nil
}

func hasDefinitionSuffix(path string) bool {
	for _, suffix := range definitionSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func (s *FSScanner) parseWithCache(path string) (types.Package, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stat package definition " + path).
			WithCause(err)
	}

	s.mu.RLock()
	cached, ok := s.scanCache[path]
	s.mu.RUnlock()
	if ok && cached.modTime == info.ModTime().UnixNano() && cached.size == info.Size() {
		return cached.pkg, nil
	}

	data, err := s.readFile(path, info.Size())
	if err != nil {
		return types.Package{}, err
	}
	pkg, err := ParsePackageDefinition(path, data)
	if err != nil {
		return types.Package{}, err
	}
	pkg.RootPath = filepath.Dir(path)
	pkg = core.WithContentHash(pkg)

	s.mu.Lock()
	s.scanCache[path] = scanCacheEntry{modTime: info.ModTime().UnixNano(), size: info.Size(), pkg: pkg}
	s.filesExamined++
	s.mu.Unlock()

	return pkg, nil
}

// readFile reads a definition file, memory-mapping it when it exceeds
// mmapThresholdBytes (§4.3) rather than loading it into the Go heap
// whole.
func (s *FSScanner) readFile(path string, size int64) ([]byte, error) {
	if size < mmapThresholdBytes {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read package definition " + path).
				WithCause(err)
		}
		return data, nil
	}

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to memory-map package definition " + path).
			WithCause(err)
	}
	defer reader.Close()
	buf := make([]byte, reader.Len())
	if _, err := reader.ReadAt(buf, 0); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read memory-mapped package definition " + path).
			WithCause(err)
	}
	return buf, nil
}

var _ ports.Repository = (*FSScanner)(nil)
