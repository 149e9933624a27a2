package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shengjie8329/ChatPPT/internal/slides"
)

func masterTemplate(t *testing.T) *Template {
	t.Helper()
	tpl, err := DefaultCatalog().Get("MasterTemplate")
	require.NoError(t, err)
	return tpl
}

func TestResolve(t *testing.T) {
	tpl := masterTemplate(t)

	tests := []struct {
		name string
		rec  slides.SlideRecord
		want Resolution
	}{
		{
			name: "exact label",
			rec:  slides.SlideRecord{LayoutKey: "Title and Picture"},
			want: Resolution{Index: 2, Name: TitleAndPicture, Source: SourceLabel},
		},
		{
			name: "label ignores case",
			rec:  slides.SlideRecord{LayoutKey: "title only"},
			want: Resolution{Index: 0, Name: TitleOnly, Source: SourceLabel},
		},
		{
			name: "numeric label",
			rec:  slides.SlideRecord{LayoutKey: "3"},
			want: Resolution{Index: 3, Name: TitleContentAndPicture, Source: SourceIndex},
		},
		{
			name: "numeric label out of range falls back on content",
			rec:  slides.SlideRecord{LayoutKey: "42", Bullets: []string{"a"}},
			want: Resolution{Index: 1, Name: TitleAndContent, Source: SourceContent},
		},
		{
			name: "unknown label with image",
			rec:  slides.SlideRecord{LayoutKey: "Fancy", ImagePath: "a.png"},
			want: Resolution{Index: 2, Name: TitleAndPicture, Source: SourceContent},
		},
		{
			name: "no label, bullets and image",
			rec:  slides.SlideRecord{Bullets: []string{"a"}, ImagePath: "a.png"},
			want: Resolution{Index: 3, Name: TitleContentAndPicture, Source: SourceContent},
		},
		{
			name: "no label, nothing else",
			rec:  slides.SlideRecord{Title: "Cover"},
			want: Resolution{Index: 0, Name: TitleOnly, Source: SourceContent},
		},
	}

	r := NewResolver(tpl)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDefaultLayout(t *testing.T) {
	tpl := &Template{
		Name:          "Custom",
		DefaultLayout: 1,
		Layouts:       slides.LayoutMapping{"Cover": 0, "Body": 1},
	}

	got, err := NewResolver(tpl).Resolve(slides.SlideRecord{LayoutKey: "Missing", Bullets: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, Resolution{Index: 1, Name: "Body", Source: SourceDefault}, got)
}

func TestResolveCaseInsensitiveIsStable(t *testing.T) {
	tpl := &Template{
		Name:    "Mixed",
		Layouts: slides.LayoutMapping{"Section Header": 5, "SECTION HEADER": 2, "section header ": 1},
	}
	r := NewResolver(tpl)

	for i := 0; i < 50; i++ {
		got, err := r.Resolve(slides.SlideRecord{LayoutKey: "Section header"})
		require.NoError(t, err)
		assert.Equal(t, Resolution{Index: 2, Name: "SECTION HEADER", Source: SourceLabel}, got)
	}
}

func TestResolveStrict(t *testing.T) {
	r := NewResolver(masterTemplate(t), WithStrict(true))

	_, err := r.Resolve(slides.SlideRecord{LayoutKey: "Fancy"})
	assert.ErrorIs(t, err, ErrUnresolvedLayout)

	// unlabelled slides still use the content fallback
	got, err := r.Resolve(slides.SlideRecord{Bullets: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, SourceContent, got.Source)
}

func TestResolveAll(t *testing.T) {
	records, _ := slides.Parse("## A [Title Only]\n## B\n- x\n## C [Nope]\n", nil)

	got, err := NewResolver(masterTemplate(t)).ResolveAll(records)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{0, 1, 0}, []int{got[0].Index, got[1].Index, got[2].Index})

	_, err = NewResolver(masterTemplate(t), WithStrict(true)).ResolveAll(records)
	assert.ErrorIs(t, err, ErrUnresolvedLayout)
	assert.ErrorContains(t, err, "slide 3")
}
