package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shengjie8329/ChatPPT/internal/slides"
)

// ErrUnresolvedLayout is returned in strict mode when a slide's label names no layout
var ErrUnresolvedLayout = errors.New("unresolved layout")

// Source records how a slide's layout was chosen
type Source string

const (
	SourceLabel   Source = "label"
	SourceIndex   Source = "index"
	SourceContent Source = "content"
	SourceDefault Source = "default"
)

// Resolution is the layout picked for one slide
type Resolution struct {
	Index  int    `yaml:"index"`
	Name   string `yaml:"name,omitempty"`
	Source Source `yaml:"source"`
}

// Resolver maps slide records onto a template's layouts
type Resolver struct {
	template *Template
	strict   bool
	logger   *zap.Logger
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithStrict makes unknown labels an error instead of falling back
func WithStrict(strict bool) ResolverOption {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// WithLogger sets the logger used for fallback warnings
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver for a template
func NewResolver(t *Template, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		template: t,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve picks the layout for a record: its label by name, then by index,
// then by the shape of its content, then the template default.
func (r *Resolver) Resolve(rec slides.SlideRecord) (Resolution, error) {
	key := strings.TrimSpace(rec.LayoutKey)

	if key != "" {
		if res, ok := r.byLabel(key); ok {
			return res, nil
		}
		if r.strict {
			return Resolution{}, fmt.Errorf("%w: %q in template %s", ErrUnresolvedLayout, key, r.template.Name)
		}
		r.logger.Warn("layout label not in template, falling back",
			zap.String("label", key),
			zap.String("template", r.template.Name),
			zap.String("slide", rec.Title),
		)
	}

	if name := contentLayout(rec); name != "" {
		if idx, ok := r.template.Layouts[name]; ok {
			return Resolution{Index: idx, Name: name, Source: SourceContent}, nil
		}
	}

	name, _ := r.template.LayoutName(r.template.DefaultLayout)
	return Resolution{Index: r.template.DefaultLayout, Name: name, Source: SourceDefault}, nil
}

// ResolveAll resolves every record, stopping at the first error
func (r *Resolver) ResolveAll(records []slides.SlideRecord) ([]Resolution, error) {
	out := make([]Resolution, len(records))
	for i, rec := range records {
		res, err := r.Resolve(rec)
		if err != nil {
			return nil, fmt.Errorf("slide %d (%s): %w", i+1, rec.Title, err)
		}
		out[i] = res
	}
	return out, nil
}

func (r *Resolver) byLabel(key string) (Resolution, bool) {
	layouts := r.template.Layouts

	if idx, ok := layouts[key]; ok {
		return Resolution{Index: idx, Name: key, Source: SourceLabel}, true
	}
	for _, name := range layouts.Names() {
		if strings.EqualFold(name, key) {
			return Resolution{Index: layouts[name], Name: name, Source: SourceLabel}, true
		}
	}

	if n, err := strconv.Atoi(key); err == nil {
		if name, ok := r.template.LayoutName(n); ok {
			return Resolution{Index: n, Name: name, Source: SourceIndex}, true
		}
	}

	return Resolution{}, false
}

// contentLayout names the standard layout matching what the slide carries
func contentLayout(rec slides.SlideRecord) string {
	switch {
	case rec.HasBullets() && rec.HasImage():
		return TitleContentAndPicture
	case rec.HasImage():
		return TitleAndPicture
	case rec.HasBullets():
		return TitleAndContent
	default:
		return TitleOnly
	}
}
