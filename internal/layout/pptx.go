package layout

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/shengjie8329/ChatPPT/internal/slides"
)

var layoutPartPattern = regexp.MustCompile(`^ppt/slideLayouts/slideLayout(\d+)\.xml$`)

// LayoutInfo describes one slide layout of a .pptx template
type LayoutInfo struct {
	Index        int           `yaml:"index"`
	Name         string        `yaml:"name"`
	Placeholders []Placeholder `yaml:"placeholders,omitempty"`
}

// Placeholder is a content region predefined by a layout
type Placeholder struct {
	Name string `yaml:"name"`
	// ph type attribute; empty means a body/object placeholder
	Type string `yaml:"type,omitempty"`
	Idx  int    `yaml:"idx"`
}

// ReadPPTX lists the slide layouts of a .pptx file. Layouts are ordered the way
// the first slide master lists them, falling back to part number order.
func ReadPPTX(filename string) ([]LayoutInfo, error) {
	reader, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("open pptx %s: %w", filename, err)
	}
	defer reader.Close()

	parts := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		parts[f.Name] = f
	}

	order := masterLayoutOrder(parts)
	if len(order) == 0 {
		order = numericLayoutOrder(parts)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("pptx %s: no slide layouts found", filename)
	}

	layouts := make([]LayoutInfo, 0, len(order))
	for i, name := range order {
		f, ok := parts[name]
		if !ok {
			continue
		}
		var doc layoutXML
		if err := decodePart(f, &doc); err != nil {
			return nil, fmt.Errorf("pptx %s: %s: %w", filename, name, err)
		}
		layouts = append(layouts, LayoutInfo{
			Index:        i,
			Name:         doc.CSld.Name,
			Placeholders: doc.placeholders(),
		})
	}

	return layouts, nil
}

// Mapping builds a name to index mapping. When names repeat, the first wins.
func Mapping(layouts []LayoutInfo) slides.LayoutMapping {
	m := make(slides.LayoutMapping, len(layouts))
	for _, l := range layouts {
		if _, exists := m[l.Name]; exists {
			continue
		}
		m[l.Name] = l.Index
	}
	return m
}

func masterLayoutOrder(parts map[string]*zip.File) []string {
	master, ok := parts["ppt/slideMasters/slideMaster1.xml"]
	if !ok {
		return nil
	}
	rels, ok := parts["ppt/slideMasters/_rels/slideMaster1.xml.rels"]
	if !ok {
		return nil
	}

	var m masterXML
	if err := decodePart(master, &m); err != nil {
		return nil
	}
	var r relsXML
	if err := decodePart(rels, &r); err != nil {
		return nil
	}

	targets := make(map[string]string, len(r.Relationships))
	for _, rel := range r.Relationships {
		targets[rel.ID] = path.Clean(path.Join("ppt/slideMasters", rel.Target))
	}

	var order []string
	for _, id := range m.LayoutIDs {
		if target, ok := targets[id.RelID]; ok {
			order = append(order, target)
		}
	}
	return order
}

func numericLayoutOrder(parts map[string]*zip.File) []string {
	type numbered struct {
		name string
		n    int
	}
	var found []numbered
	for name := range parts {
		m := layoutPartPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		found = append(found, numbered{name: name, n: n})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	order := make([]string, len(found))
	for i, f := range found {
		order[i] = f.name
	}
	return order
}

func decodePart(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}

type layoutXML struct {
	CSld struct {
		Name   string `xml:"name,attr"`
		SpTree struct {
			Shapes []shapeXML `xml:"sp"`
			Pics   []shapeXML `xml:"pic"`
		} `xml:"spTree"`
	} `xml:"cSld"`
}

type shapeXML struct {
	NvSpPr  nvPrXML `xml:"nvSpPr"`
	NvPicPr nvPrXML `xml:"nvPicPr"`
}

type nvPrXML struct {
	CNvPr struct {
		Name string `xml:"name,attr"`
	} `xml:"cNvPr"`
	NvPr struct {
		Ph *struct {
			Type string `xml:"type,attr"`
			Idx  int    `xml:"idx,attr"`
		} `xml:"ph"`
	} `xml:"nvPr"`
}

func (l layoutXML) placeholders() []Placeholder {
	var out []Placeholder
	add := func(nv nvPrXML) {
		if nv.NvPr.Ph == nil {
			return
		}
		out = append(out, Placeholder{
			Name: nv.CNvPr.Name,
			Type: nv.NvPr.Ph.Type,
			Idx:  nv.NvPr.Ph.Idx,
		})
	}
	for _, sp := range l.CSld.SpTree.Shapes {
		add(sp.NvSpPr)
	}
	for _, pic := range l.CSld.SpTree.Pics {
		add(pic.NvPicPr)
	}
	return out
}

type masterXML struct {
	LayoutIDs []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldLayoutIdLst>sldLayoutId"`
}

type relsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}
