package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"
)

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

var schemePattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*):`)

// HTMLRenderer writes a self-contained HTML page, one section per slide
type HTMLRenderer struct {
	md    goldmark.Markdown
	embed bool
}

// NewHTMLRenderer creates an HTML renderer. With embed set, local images are
// inlined as data URIs instead of linked.
func NewHTMLRenderer(embed bool) *HTMLRenderer {
	return &HTMLRenderer{
		md:    newInlineMarkdown(),
		embed: embed,
	}
}

// newInlineMarkdown parses every bullet as a single paragraph, so leading
// "#", ">" or "1." stay text while emphasis, code spans and links still render.
func newInlineMarkdown() goldmark.Markdown {
	p := parser.NewParser(
		parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 1000)),
		parser.WithInlineParsers(parser.DefaultInlineParsers()...),
	)
	return goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	)
}

func (r *HTMLRenderer) Extension() string {
	return ".html"
}

type htmlSlide struct {
	Number      int
	Title       string
	Layout      string
	LayoutIndex int
	Source      string
	Bullets     []template.HTML
	Image       template.URL
	ImageAlt    string
}

func (r *HTMLRenderer) Render(w io.Writer, p *Presentation) error {
	view := struct {
		Title    string
		Template string
		Slides   []htmlSlide
	}{
		Title:    p.Title,
		Template: p.Template,
	}

	for i, s := range p.Slides {
		hs := htmlSlide{
			Number:      i + 1,
			Title:       s.Title,
			Layout:      s.Layout.Name,
			LayoutIndex: s.Layout.Index,
			Source:      string(s.Layout.Source),
			ImageAlt:    s.Title,
		}
		for _, b := range s.Bullets {
			inline, err := r.inline(b)
			if err != nil {
				return fmt.Errorf("slide %d: %w", i+1, err)
			}
			hs.Bullets = append(hs.Bullets, inline)
		}
		if s.HasImage() {
			src, err := r.imageSource(p.BaseDir, s.ImagePath)
			if err != nil {
				return fmt.Errorf("slide %d: %w", i+1, err)
			}
			hs.Image = src
		}
		view.Slides = append(view.Slides, hs)
	}

	return deckTemplate.Execute(w, view)
}

// inline renders one line of markdown without the wrapping paragraph
func (r *HTMLRenderer) inline(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	out := strings.TrimSpace(buf.String())
	out = strings.TrimPrefix(out, "<p>")
	out = strings.TrimSuffix(out, "</p>")
	return template.HTML(out), nil
}

// imageSource accepts http(s) URLs, data:image URIs and file paths. Any other
// scheme is rejected.
func (r *HTMLRenderer) imageSource(baseDir, path string) (template.URL, error) {
	switch scheme := urlScheme(path); scheme {
	case "http", "https":
		return template.URL(path), nil
	case "data":
		if !strings.HasPrefix(strings.ToLower(path), "data:image/") {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, path)
		}
		return template.URL(path), nil
	case "":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, path)
	}

	mime, ok := imageTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, path)
	}

	if !r.embed {
		return fileURL(path), nil
	}

	full := path
	if !filepath.IsAbs(full) && baseDir != "" {
		full = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("embed image: %w", err)
	}
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)), nil
}

// urlScheme returns the lowercased URL scheme of path, or "" for file paths.
// A single letter is a Windows drive, not a scheme.
func urlScheme(path string) string {
	m := schemePattern.FindStringSubmatch(path)
	if m == nil || len(m[1]) == 1 {
		return ""
	}
	return strings.ToLower(m[1])
}

// fileURL escapes a file path for use as a link
func fileURL(path string) template.URL {
	u := &url.URL{Path: filepath.ToSlash(path)}
	if schemePattern.MatchString(path) {
		// drive letter
		u = &url.URL{Scheme: "file", Path: "/" + filepath.ToSlash(path)}
	}
	return template.URL(u.String())
}

var deckTemplate = template.Must(template.New("deck").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="generator" content="chatppt">
<meta name="template" content="{{.Template}}">
<title>{{.Title}}</title>
<style>
body { margin: 0; background: #1e1e2e; font-family: system-ui, sans-serif; }
section.slide { box-sizing: border-box; width: 960px; height: 540px; margin: 24px auto; padding: 48px 64px; background: #fff; border-radius: 6px; display: flex; flex-direction: column; }
section.slide h2 { margin: 0 0 24px; font-size: 36px; color: #1e1e2e; }
section.slide .body { display: flex; gap: 32px; flex: 1; min-height: 0; }
section.slide ul { flex: 1; font-size: 24px; line-height: 1.5; margin: 0; }
section.slide figure { flex: 1; margin: 0; display: flex; align-items: center; justify-content: center; }
section.slide img { max-width: 100%; max-height: 100%; }
section.slide[data-layout="Title Only"] { justify-content: center; text-align: center; }
section.slide[data-layout="Title Only"] h2 { font-size: 48px; }
footer { text-align: right; color: #999; font-size: 14px; }
</style>
</head>
<body>
{{- range .Slides}}
<section class="slide" id="slide-{{.Number}}" data-layout="{{.Layout}}" data-layout-index="{{.LayoutIndex}}" data-layout-source="{{.Source}}">
<h2>{{.Title}}</h2>
{{- if or .Bullets .Image}}
<div class="body">
{{- if .Bullets}}
<ul>
{{- range .Bullets}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Image}}
<figure><img src="{{.Image}}" alt="{{.ImageAlt}}"></figure>
{{- end}}
</div>
{{- end}}
<footer>{{.Number}}</footer>
</section>
{{- end}}
</body>
</html>
`))
