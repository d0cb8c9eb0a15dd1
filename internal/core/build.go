package core

import (
	"context"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// FormatSystemPackages renders a resolved apt/pip toolchain set as the
// comma-joined name=version pairs exported to a build's environment as
// REZ_BUILD_SYSTEM_PACKAGES, and recorded in a ResolvedContext's
// metadata["system_packages"] (§4.7.1). Sorted by name for determinism.
func FormatSystemPackages(versions map[string]string) string {
	names := make([]string, 0, len(versions))
	for name := range versions {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = name + "=" + versions[name]
	}
	return strings.Join(pairs, ",")
}

// BuildSemaphore bounds the number of builds the Build Orchestrator
// runs at once (max_concurrent_builds, §4.8), grounded on the
// teacher's own buffered-channel worker pool
// (repo_index_builder.go's sem := make(chan struct{}, workerCount)).
type BuildSemaphore struct {
	slots chan struct{}
}

// NewBuildSemaphore constructs a semaphore allowing up to max
// concurrent builds. max <= 0 is treated as 1 (no concurrency).
func NewBuildSemaphore(max int) *BuildSemaphore {
	if max <= 0 {
		max = 1
	}
	return &BuildSemaphore{slots: make(chan struct{}, max)}
}

// Acquire blocks until a build slot is free or ctx is cancelled.
func (s *BuildSemaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("build cancelled while waiting for a free slot").
			WithCause(ctx.Err())
	}
}

// Release frees the slot acquired by a prior successful Acquire.
func (s *BuildSemaphore) Release() {
	<-s.slots
}
