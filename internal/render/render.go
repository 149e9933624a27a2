package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shengjie8329/ChatPPT/internal/layout"
	"github.com/shengjie8329/ChatPPT/internal/slides"
)

// ErrUnsupportedImage is returned for image paths the renderer cannot place
var ErrUnsupportedImage = errors.New("unsupported image format")

// Slide is a parsed slide with its resolved layout
type Slide struct {
	slides.SlideRecord `yaml:",inline"`
	Layout             layout.Resolution `yaml:"layout"`
}

// Presentation is everything a renderer needs to write one deck
type Presentation struct {
	Title    string  `yaml:"title"`
	Template string  `yaml:"template"`
	Slides   []Slide `yaml:"slides"`
	// Directory relative image paths are resolved against
	BaseDir string `yaml:"-"`
}

// Renderer writes a presentation in one output format
type Renderer interface {
	Render(w io.Writer, p *Presentation) error
	// Extension of the output file, including the dot
	Extension() string
}

// Formats lists the names NewRenderer accepts
var Formats = []string{"html", "yaml", "markdown"}

// NewRenderer returns the renderer for a format name
func NewRenderer(format string, embedImages bool) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "html":
		return NewHTMLRenderer(embedImages), nil
	case "yaml", "outline":
		return NewOutlineRenderer(), nil
	case "markdown", "md":
		return NewMarkdownRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// Build resolves every slide of a deck against a template
func Build(deck *slides.Deck, tpl *layout.Template, resolver *layout.Resolver) (*Presentation, error) {
	p := &Presentation{
		Title:    deck.Title,
		Template: tpl.Name,
		Slides:   make([]Slide, 0, deck.Len()),
	}

	resolutions, err := resolver.ResolveAll(deck.Slides)
	if err != nil {
		return nil, err
	}
	for i, rec := range deck.Slides {
		p.Slides = append(p.Slides, Slide{SlideRecord: rec, Layout: resolutions[i]})
	}
	return p, nil
}

// Deck returns the slide records without their layouts
func (p *Presentation) Deck() *slides.Deck {
	d := &slides.Deck{Title: p.Title, Slides: make([]slides.SlideRecord, len(p.Slides))}
	for i, s := range p.Slides {
		d.Slides[i] = s.SlideRecord
	}
	return d
}

// MarkdownRenderer writes the deck back in the slide markdown dialect
type MarkdownRenderer struct{}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

func (r *MarkdownRenderer) Render(w io.Writer, p *Presentation) error {
	_, err := io.WriteString(w, slides.Format(p.Deck()))
	return err
}

func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
