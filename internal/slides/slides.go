package slides

import "sort"

// DefaultTitle is used when the markdown has no top-level heading
const DefaultTitle = "Untitled"

// SlideRecord is one slide's content before rendering
type SlideRecord struct {
	// Bracketed label from the heading, verbatim. Empty when the heading had none.
	LayoutKey string   `yaml:"layout_key" json:"layout_key"`
	Title     string   `yaml:"title" json:"title"`
	Bullets   []string `yaml:"bullets,omitempty" json:"bullets,omitempty"`
	ImagePath string   `yaml:"image_path,omitempty" json:"image_path,omitempty"`
}

// HasImage reports whether the slide carries a picture
func (r SlideRecord) HasImage() bool {
	return r.ImagePath != ""
}

// HasBullets reports whether the slide carries body text
func (r SlideRecord) HasBullets() bool {
	return len(r.Bullets) > 0
}

// LayoutMapping maps a layout name to its index in a template
type LayoutMapping map[string]int

// Names returns layout names ordered by index, ties broken by name
func (m LayoutMapping) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if m[names[i]] != m[names[j]] {
			return m[names[i]] < m[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// Lookup returns the index for a layout name
func (m LayoutMapping) Lookup(name string) (int, bool) {
	idx, ok := m[name]
	return idx, ok
}

// Deck is a parsed presentation
type Deck struct {
	Title  string        `yaml:"title" json:"title"`
	Slides []SlideRecord `yaml:"slides" json:"slides"`
}

// Len returns the number of slides
func (d *Deck) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Slides)
}
