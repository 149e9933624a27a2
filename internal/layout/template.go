package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/shengjie8329/ChatPPT/internal/slides"
)

// Standard layout names used by the bundled templates and the content fallback
const (
	TitleOnly              = "Title Only"
	TitleAndContent        = "Title and Content"
	TitleAndPicture        = "Title and Picture"
	TitleContentAndPicture = "Title, Content, and Picture"
)

// ErrUnknownTemplate is returned when a template name is not in the catalog
var ErrUnknownTemplate = errors.New("unknown template")

// Template is a named slide template and its layouts
type Template struct {
	Name          string               `yaml:"name"`
	Path          string               `yaml:"path,omitempty"`
	DefaultLayout int                  `yaml:"default_layout"`
	Layouts       slides.LayoutMapping `yaml:"layouts,omitempty"`
}

// Catalog holds the templates available for rendering
type Catalog struct {
	Default   string      `yaml:"default"`
	Templates []*Template `yaml:"templates"`
}

func standardMapping() slides.LayoutMapping {
	return slides.LayoutMapping{
		TitleOnly:              0,
		TitleAndContent:        1,
		TitleAndPicture:        2,
		TitleContentAndPicture: 3,
	}
}

// DefaultCatalog returns the bundled MasterTemplate and LGBTTemplate
func DefaultCatalog() *Catalog {
	return &Catalog{
		Default: "MasterTemplate",
		Templates: []*Template{
			{Name: "MasterTemplate", Path: "templates/MasterTemplate.pptx", DefaultLayout: 1, Layouts: standardMapping()},
			{Name: "LGBTTemplate", Path: "templates/LGBTTemplate.pptx", DefaultLayout: 1, Layouts: standardMapping()},
		},
	}
}

// LoadCatalog reads a YAML catalog. Templates listed without layouts get them
// from their .pptx file; relative paths resolve against the catalog's directory.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for _, t := range cat.Templates {
		if t.Name == "" {
			return nil, fmt.Errorf("catalog %s: template without name", path)
		}
		if t.Path != "" && !filepath.IsAbs(t.Path) {
			t.Path = filepath.Join(base, t.Path)
		}
		if len(t.Layouts) > 0 {
			continue
		}
		if t.Path == "" {
			return nil, fmt.Errorf("catalog %s: template %q has neither layouts nor path", path, t.Name)
		}
		layouts, err := ReadPPTX(t.Path)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Name, err)
		}
		t.Layouts = Mapping(layouts)
	}

	if cat.Default == "" && len(cat.Templates) > 0 {
		cat.Default = cat.Templates[0].Name
	}

	return &cat, nil
}

// LoadCatalogOrDefault loads path when it exists, otherwise returns DefaultCatalog
func LoadCatalogOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultCatalog(), nil
	}
	return LoadCatalog(path)
}

// Get returns a template by name. An empty name selects the catalog default.
func (c *Catalog) Get(name string) (*Template, error) {
	if name == "" {
		name = c.Default
	}
	for _, t := range c.Templates {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
}

// Names returns template names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Templates))
	for _, t := range c.Templates {
		names = append(names, t.Name)
	}
	return names
}

// LayoutName returns the name registered for a layout index
func (t *Template) LayoutName(index int) (string, bool) {
	var names []string
	for name, idx := range t.Layouts {
		if idx == index {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[0], true
}
