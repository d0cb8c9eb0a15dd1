package adapters

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/types"
)

// ContextFileAdapter persists a ResolvedContext to a single JSON file
// per save/load call, following the teacher's OutputFileAdapter
// ensure-directory-then-write shape (output_file.go) adapted to one
// file per context rather than one file per output kind, and to an
// atomic write (temp file + rename) since a context file is read back
// by later `env`/`build` invocations and a half-written file would
// break them.
type ContextFileAdapter struct {
	Dir string
}

func NewContextFileAdapter(dir string) ContextFileAdapter {
	return ContextFileAdapter{Dir: dir}
}

// Save writes ctx to <dir>/<name>.context, encoded as JSON. Struct
// field order in types.ResolvedContext is the on-disk key order;
// ctx.Metadata carries forward-compatible extra fields a future
// version of this tool may add without breaking older readers.
func (a ContextFileAdapter) Save(name string, ctx types.ResolvedContext) error {
	path, err := a.ensurePath(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode resolved context").
			WithCause(err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write resolved context").
			WithCause(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to finalize resolved context file").
			WithCause(err)
	}
	return nil
}

// Load reads a previously saved context by name.
func (a ContextFileAdapter) Load(name string) (types.ResolvedContext, error) {
	path := filepath.Join(a.Dir, name+".context")
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ResolvedContext{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("resolved context file not found: " + path).
			WithCause(err)
	}
	var ctx types.ResolvedContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		return types.ResolvedContext{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse resolved context file: " + path).
			WithCause(err)
	}
	return ctx, nil
}

func (a ContextFileAdapter) ensurePath(name string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("context directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create context directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, name+".context"), nil
}
