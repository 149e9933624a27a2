package render

import (
	"io"

	"gopkg.in/yaml.v3"
)

// OutlineRenderer writes the resolved deck as YAML
type OutlineRenderer struct{}

func NewOutlineRenderer() *OutlineRenderer {
	return &OutlineRenderer{}
}

func (r *OutlineRenderer) Render(w io.Writer, p *Presentation) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return enc.Close()
}

func (r *OutlineRenderer) Extension() string {
	return ".yaml"
}
