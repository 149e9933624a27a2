package scenario

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

//go:embed builtin
var builtin embed.FS

// Index holds the metadata of every scenario under a directory
type Index struct {
	scenarios map[string]*Metadata
	dir       string
}

// NewIndex scans dir/<name>/SCENARIO.md. A missing directory yields an
// empty index; unreadable scenarios are skipped and logged.
func NewIndex(dir string, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	idx := &Index{
		scenarios: make(map[string]*Metadata),
		dir:       dir,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return idx, nil
		}
		return nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		p := filepath.Join(dir, entry.Name(), FileName)
		if _, err := os.Stat(p); err != nil {
			continue
		}

		meta, err := LoadMetadata(p)
		if err != nil {
			logger.Warn("skipping scenario", zap.String("path", p), zap.Error(err))
			continue
		}

		idx.scenarios[meta.Name] = meta
	}

	return idx, nil
}

// Get returns metadata by name
func (idx *Index) Get(name string) *Metadata {
	if idx == nil {
		return nil
	}
	return idx.scenarios[name]
}

// Load returns the full scenario by name
func (idx *Index) Load(name string) (*Scenario, error) {
	meta := idx.Get(name)
	if meta == nil {
		return nil, &NotFoundError{Name: name}
	}
	return LoadFull(meta)
}

// All returns every scenario's metadata sorted by name
func (idx *Index) All() []*Metadata {
	if idx == nil {
		return nil
	}
	result := make([]*Metadata, 0, len(idx.scenarios))
	for _, meta := range idx.scenarios {
		result = append(result, meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// List returns all scenario names, sorted
func (idx *Index) List() []string {
	all := idx.All()
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.Name
	}
	return names
}

// Dir returns the scanned directory
func (idx *Index) Dir() string {
	return idx.dir
}

// Count returns the number of loaded scenarios
func (idx *Index) Count() int {
	if idx == nil {
		return 0
	}
	return len(idx.scenarios)
}

// NotFoundError reports an unknown scenario name
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "unknown scenario: " + e.Name
}

// Seed copies the bundled scenarios into dir, leaving existing ones alone.
// It returns the names it wrote.
func Seed(dir string) ([]string, error) {
	entries, err := fs.ReadDir(builtin, "builtin")
	if err != nil {
		return nil, err
	}

	var written []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		target := filepath.Join(dir, entry.Name(), FileName)
		if _, err := os.Stat(target); err == nil {
			continue
		}

		content, err := builtin.ReadFile(path.Join("builtin", entry.Name(), FileName))
		if err != nil {
			return written, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return written, err
		}
		if err := os.WriteFile(target, content, 0644); err != nil {
			return written, err
		}
		written = append(written, entry.Name())
	}

	return written, nil
}
