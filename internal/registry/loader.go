// Package registry discovers GGUF model files on disk.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"edgellm/internal/common/fsutil"
	"edgellm/internal/gguf"
	"edgellm/pkg/types"
)

// LoadDir scans a directory for *.gguf files and describes each from its
// GGUF header. ID is the full filename; Path is the absolute file path.
// Name falls back to the ID when general.name is absent.
//
// Files whose header cannot be read are skipped. The models that did parse
// are still returned, together with a multierror naming every skipped file.
func LoadDir(dir string) ([]types.Model, error) {
	abs, err := fsutil.ResolvePath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var (
		models []types.Model
		errs   *multierror.Error
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		p := filepath.Join(abs, name)
		m, err := Describe(p)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, errs.ErrorOrNil()
}

// Describe reads one model file's header into a types.Model.
func Describe(path string) (types.Model, error) {
	md, err := gguf.Open(path)
	if err != nil {
		return types.Model{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	id := filepath.Base(path)
	m := types.Model{ID: id, Name: md.Name(), Path: path, Family: md.Architecture()}
	if m.Name == "" {
		m.Name = id
	}
	if n, ok := md.ContextSize(); ok {
		m.ContextSize = n
	}
	return m, nil
}
