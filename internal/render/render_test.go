package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/shengjie8329/ChatPPT/internal/layout"
	"github.com/shengjie8329/ChatPPT/internal/slides"
)

const demoMarkdown = `# ChatPPT_Demo

## ChatPPT Demo [Title Only]

## 2024 业绩概述 [Title and Content]
- 总收入增长**15%**
- 市场份额扩大至30%

## 业绩图表 [Title and Picture]
![业绩图表](images/chart.png)

## 新产品发布 [Title and 2 Column]
- 产品A: <b>特色</b>功能介绍
`

func masterTemplate(t *testing.T) *layout.Template {
	t.Helper()
	tpl, err := layout.DefaultCatalog().Get("MasterTemplate")
	require.NoError(t, err)
	return tpl
}

func demoPresentation(t *testing.T) *Presentation {
	t.Helper()
	deck := slides.ParseDeck(demoMarkdown, nil)
	p, err := NewGenerator(NewHTMLRenderer(false), GeneratorOptions{}).Resolve(deck, masterTemplate(t))
	require.NoError(t, err)
	return p
}

func TestBuildResolvesLayouts(t *testing.T) {
	p := demoPresentation(t)

	assert.Equal(t, "ChatPPT_Demo", p.Title)
	assert.Equal(t, "MasterTemplate", p.Template)
	require.Len(t, p.Slides, 4)

	assert.Equal(t, layout.Resolution{Index: 0, Name: layout.TitleOnly, Source: layout.SourceLabel}, p.Slides[0].Layout)
	assert.Equal(t, 1, p.Slides[1].Layout.Index)
	assert.Equal(t, 2, p.Slides[2].Layout.Index)
	// unknown label falls back on content shape
	assert.Equal(t, layout.Resolution{Index: 1, Name: layout.TitleAndContent, Source: layout.SourceContent}, p.Slides[3].Layout)
}

func TestBuildStrict(t *testing.T) {
	deck := slides.ParseDeck(demoMarkdown, nil)
	_, err := NewGenerator(NewHTMLRenderer(false), GeneratorOptions{Strict: true}).Resolve(deck, masterTemplate(t))
	assert.ErrorIs(t, err, layout.ErrUnresolvedLayout)
}

func TestHTMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewHTMLRenderer(false).Render(&buf, demoPresentation(t)))
	out := buf.String()

	assert.Contains(t, out, "<title>ChatPPT_Demo</title>")
	assert.Equal(t, 4, strings.Count(out, `<section class="slide"`))
	assert.Contains(t, out, `data-layout="Title Only" data-layout-index="0" data-layout-source="label"`)
	assert.Contains(t, out, `data-layout="Title and Content" data-layout-index="1" data-layout-source="content"`)
	assert.Contains(t, out, "<li>总收入增长<strong>15%</strong></li>")
	assert.Contains(t, out, `<img src="images/chart.png" alt="业绩图表">`)
	// raw HTML in bullets is not passed through
	assert.NotContains(t, out, "<b>特色</b>")
}

func TestHTMLRendererEscapesTitle(t *testing.T) {
	p := &Presentation{
		Title:  "<script>x</script>",
		Slides: []Slide{{SlideRecord: slides.SlideRecord{Title: "a & b"}}},
	}
	var buf bytes.Buffer
	require.NoError(t, NewHTMLRenderer(false).Render(&buf, p))
	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "<h2>a &amp; b</h2>")
}

func TestHTMLRendererImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "c.png"), []byte("png-bytes"), 0644))

	slide := func(path string) *Presentation {
		return &Presentation{
			Title:   "Pics",
			BaseDir: dir,
			Slides:  []Slide{{SlideRecord: slides.SlideRecord{Title: "P", ImagePath: path}}},
		}
	}

	var buf bytes.Buffer
	require.NoError(t, NewHTMLRenderer(true).Render(&buf, slide("images/c.png")))
	assert.Contains(t, buf.String(), `src="data:image/png;base64,cG5nLWJ5dGVz"`)

	buf.Reset()
	require.NoError(t, NewHTMLRenderer(true).Render(&buf, slide("https://example.com/a.png")))
	assert.Contains(t, buf.String(), `src="https://example.com/a.png"`)

	err := NewHTMLRenderer(false).Render(&bytes.Buffer{}, slide("chart.bmp"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	err = NewHTMLRenderer(true).Render(&bytes.Buffer{}, slide("images/missing.png"))
	assert.ErrorContains(t, err, "embed image")
}

func TestHTMLRendererImageSchemes(t *testing.T) {
	render := func(embed bool, path string) (string, error) {
		p := &Presentation{
			Title:   "Pics",
			BaseDir: t.TempDir(),
			Slides:  []Slide{{SlideRecord: slides.SlideRecord{Title: "P", ImagePath: path}}},
		}
		var buf bytes.Buffer
		err := NewHTMLRenderer(embed).Render(&buf, p)
		return buf.String(), err
	}

	rejected := []string{
		"javascript:location='//evil.example'//.png",
		"JavaScript:alert(1)//.png",
		"vbscript:msgbox.png",
		"file:///etc/passwd.png",
		"data:text/html;base64,PHNjcmlwdD4=.png",
	}
	for _, path := range rejected {
		for _, embed := range []bool{false, true} {
			out, err := render(embed, path)
			assert.ErrorIs(t, err, ErrUnsupportedImage, path)
			assert.NotContains(t, out, "<img", path)
		}
	}

	out, err := render(false, "data:image/png;base64,cG5n")
	require.NoError(t, err)
	assert.Contains(t, out, `src="data:image/png;base64,cG5n"`)

	out, err = render(false, "HTTPS://example.com/a.png")
	require.NoError(t, err)
	assert.Contains(t, out, `src="HTTPS://example.com/a.png"`)

	out, err = render(false, "images/my chart.png")
	require.NoError(t, err)
	assert.Contains(t, out, `src="images/my%20chart.png"`)

	out, err = render(false, "/srv/decks/chart.png")
	require.NoError(t, err)
	assert.Contains(t, out, `src="/srv/decks/chart.png"`)
}

func TestHTMLRendererBulletsStayInline(t *testing.T) {
	tests := []struct {
		bullet string
		want   string
	}{
		{"2024. Revenue up", "<li>2024. Revenue up</li>"},
		{"# not a heading", "<li># not a heading</li>"},
		{"> quoted", "<li>&gt; quoted</li>"},
		{"* starred", "<li>* starred</li>"},
		{"use `go test` and **bold** and ~~old~~", "<li>use <code>go test</code> and <strong>bold</strong> and <del>old</del></li>"},
		{"[docs](https://example.com)", `<li><a href="https://example.com">docs</a></li>`},
	}

	for _, tt := range tests {
		p := &Presentation{
			Title:  "Bullets",
			Slides: []Slide{{SlideRecord: slides.SlideRecord{Title: "B", Bullets: []string{tt.bullet}}}},
		}
		var buf bytes.Buffer
		require.NoError(t, NewHTMLRenderer(false).Render(&buf, p), tt.bullet)
		out := buf.String()

		assert.Contains(t, out, tt.want, tt.bullet)
		for _, tag := range []string{"<ol", "<h1", "<blockquote", "<pre", "<hr"} {
			assert.NotContains(t, out, tag, tt.bullet)
		}
	}
}

func TestOutlineRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewOutlineRenderer().Render(&buf, demoPresentation(t)))

	var got struct {
		Title  string `yaml:"title"`
		Slides []struct {
			Title     string   `yaml:"title"`
			LayoutKey string   `yaml:"layout_key"`
			Bullets   []string `yaml:"bullets"`
			Layout    struct {
				Index  int    `yaml:"index"`
				Source string `yaml:"source"`
			} `yaml:"layout"`
		} `yaml:"slides"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "ChatPPT_Demo", got.Title)
	require.Len(t, got.Slides, 4)
	assert.Equal(t, "Title and 2 Column", got.Slides[3].LayoutKey)
	assert.Equal(t, "content", got.Slides[3].Layout.Source)
	assert.Len(t, got.Slides[1].Bullets, 2)
}

func TestMarkdownRendererRoundTrip(t *testing.T) {
	p := demoPresentation(t)
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownRenderer().Render(&buf, p))
	assert.Equal(t, p.Deck(), slides.ParseDeck(buf.String(), nil))
}

func TestNewRenderer(t *testing.T) {
	for format, ext := range map[string]string{"": ".html", "HTML": ".html", "yaml": ".yaml", "outline": ".yaml", "md": ".md"} {
		r, err := NewRenderer(format, false)
		require.NoError(t, err, format)
		assert.Equal(t, ext, r.Extension())
	}
	_, err := NewRenderer("pptx", false)
	assert.Error(t, err)
}

func TestGeneratorWrites(t *testing.T) {
	out := filepath.Join(t.TempDir(), "outputs")
	g := NewGenerator(NewOutlineRenderer(), GeneratorOptions{OutDir: out, Logger: zaptest.NewLogger(t)})

	path, err := g.Generate(slides.ParseDeck(demoMarkdown, nil), masterTemplate(t), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "ChatPPT_Demo.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: ChatPPT_Demo")

	// rewriting replaces the file and leaves no temp files behind
	_, err = g.Generate(slides.ParseDeck("# ChatPPT_Demo\n## Only [Title Only]\n", nil), masterTemplate(t), "")
	require.NoError(t, err)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: Only")
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"ChatPPT_Demo":     "ChatPPT_Demo",
		"2024 业绩概述":        "2024 业绩概述",
		"a/b\\c:d":         "a_b_c_d",
		"  ..hidden..  ":   "hidden",
		"line\nbreak":      "linebreak",
		"":                 "presentation",
		"...":              "presentation",
	}
	for in, want := range tests {
		assert.Equal(t, want, FileName(in), in)
	}
}
