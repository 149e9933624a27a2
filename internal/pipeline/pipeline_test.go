package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shengjie8329/ChatPPT/internal/layout"
	"github.com/shengjie8329/ChatPPT/internal/render"
	"github.com/shengjie8329/ChatPPT/internal/scenario"
	"github.com/shengjie8329/ChatPPT/internal/slides"
)

const weeklyMarkdown = `# Weekly Report

## This week [Title and Content]
- shipped the parser
- fixed layout fallback

## Thanks [Title Only]
`

type fakeDrafter struct {
	mu     sync.Mutex
	system string
	inputs []string
	reply  string
	err    error
}

func (f *fakeDrafter) ChatWithHistory(ctx context.Context, input string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	return f.reply, f.err
}

// streamingDrafter replies line by line through the chunk callback
type streamingDrafter struct {
	fakeDrafter
	streamed int
}

func (f *streamingDrafter) StreamWithHistory(ctx context.Context, input string, onChunk func(string)) (string, error) {
	f.mu.Lock()
	f.streamed++
	f.mu.Unlock()

	for _, line := range strings.SplitAfter(f.reply, "\n") {
		onChunk(line)
	}
	return f.ChatWithHistory(ctx, input)
}

type drafterSet struct {
	mu       sync.Mutex
	reply    string
	err      error
	drafters []*fakeDrafter
}

func (s *drafterSet) factory(system string) Drafter {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &fakeDrafter{system: system, reply: s.reply, err: s.err}
	s.drafters = append(s.drafters, d)
	return d
}

func newTestPipeline(t *testing.T, set *drafterSet, opts Options) (*Pipeline, string) {
	t.Helper()
	out := t.TempDir()
	opts.Generator = render.NewGenerator(render.NewOutlineRenderer(), render.GeneratorOptions{OutDir: out})
	opts.Logger = zaptest.NewLogger(t)
	if set != nil {
		opts.NewDrafter = set.factory
	}
	return NewPipeline(opts), out
}

func TestProcessMarkdown(t *testing.T) {
	p, out := newTestPipeline(t, nil, Options{})

	var stages []Stage
	p.SetProgressCallback(func(pr Progress) {
		assert.Equal(t, totalStages, pr.TotalStages)
		stages = append(stages, pr.Stage)
	})

	res, err := p.Process(context.Background(), Request{Markdown: weeklyMarkdown})
	require.NoError(t, err)

	assert.Equal(t, []Stage{StageParsing, StageResolving, StageRendering, StageDone}, stages)
	assert.Equal(t, "MasterTemplate", res.Template)
	assert.Equal(t, "Weekly Report", res.Deck.Title)
	require.Len(t, res.Presentation.Slides, 2)
	assert.Equal(t, layout.SourceLabel, res.Presentation.Slides[0].Layout.Source)
	assert.Equal(t, filepath.Join(out, "Weekly Report.yaml"), res.OutputPath)
	assert.FileExists(t, res.OutputPath)
}

func TestProcessDrafts(t *testing.T) {
	set := &drafterSet{reply: weeklyMarkdown}
	p, _ := newTestPipeline(t, set, Options{})

	var stages []Stage
	p.SetProgressCallback(func(pr Progress) { stages = append(stages, pr.Stage) })

	res, err := p.Process(context.Background(), Request{Task: "write my weekly report", Template: "LGBTTemplate"})
	require.NoError(t, err)

	assert.Equal(t, StageDrafting, stages[0])
	assert.Equal(t, weeklyMarkdown, res.Markdown)
	assert.Equal(t, "LGBTTemplate", res.Template)

	require.Len(t, set.drafters, 1)
	assert.Equal(t, []string{"write my weekly report"}, set.drafters[0].inputs)

	// follow-ups reuse the same conversation
	_, err = p.Process(context.Background(), Request{Task: "make it shorter"})
	require.NoError(t, err)
	require.Len(t, set.drafters, 1)
	assert.Len(t, set.drafters[0].inputs, 2)

	p.Reset()
	_, err = p.Process(context.Background(), Request{Task: "again"})
	require.NoError(t, err)
	assert.Len(t, set.drafters, 2)
}

func TestProcessStreamsDraft(t *testing.T) {
	d := &streamingDrafter{fakeDrafter: fakeDrafter{reply: weeklyMarkdown}}
	p, _ := newTestPipeline(t, nil, Options{
		NewDrafter: func(string) Drafter { return d },
	})

	// without a draft callback the drafter is not asked to stream
	_, err := p.Process(context.Background(), Request{Task: "weekly report"})
	require.NoError(t, err)
	assert.Zero(t, d.streamed)

	var streamed strings.Builder
	p.SetDraftCallback(func(chunk string) { streamed.WriteString(chunk) })

	res, err := p.Process(context.Background(), Request{Task: "again"})
	require.NoError(t, err)
	assert.Equal(t, 1, d.streamed)
	assert.Equal(t, weeklyMarkdown, streamed.String())
	assert.Equal(t, weeklyMarkdown, res.Markdown)
	assert.Len(t, d.inputs, 2)

	// markdown builds never draft
	streamed.Reset()
	_, err = p.Process(context.Background(), Request{Markdown: weeklyMarkdown})
	require.NoError(t, err)
	assert.Empty(t, streamed.String())
}

func TestProcessScenario(t *testing.T) {
	dir := t.TempDir()
	_, err := scenario.Seed(dir)
	require.NoError(t, err)
	idx, err := scenario.NewIndex(dir, nil)
	require.NoError(t, err)

	set := &drafterSet{reply: weeklyMarkdown}
	p, _ := newTestPipeline(t, set, Options{Scenarios: idx})

	res, err := p.Process(context.Background(), Request{Task: "pride month kickoff", Scenario: "lgbt-pride"})
	require.NoError(t, err)

	assert.Equal(t, "lgbt-pride", res.Scenario)
	assert.Equal(t, "LGBTTemplate", res.Template)
	require.Len(t, set.drafters, 1)
	assert.Contains(t, set.drafters[0].system, "Scenario: lgbt-pride")

	_, err = p.Process(context.Background(), Request{Task: "x", Scenario: "missing"})
	var nf *scenario.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestProcessReference(t *testing.T) {
	src := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(src, []byte("# Numbers\n\nRevenue grew 15%.\n"), 0644))

	set := &drafterSet{reply: weeklyMarkdown}
	p, _ := newTestPipeline(t, set, Options{})

	res, err := p.Process(context.Background(), Request{Task: "summarise", Source: src})
	require.NoError(t, err)
	assert.False(t, res.Truncated)
	assert.Contains(t, set.drafters[0].inputs[0], "Revenue grew 15%.")
	assert.Contains(t, set.drafters[0].inputs[0], "<reference>")

	_, err = p.Process(context.Background(), Request{Task: "summarise", Source: filepath.Join(t.TempDir(), "deck.pdf")})
	assert.ErrorContains(t, err, "load reference")
}

func TestProcessLayoutHint(t *testing.T) {
	cat := &layout.Catalog{
		Default: "Brand",
		Templates: []*layout.Template{{
			Name:    "Brand",
			Layouts: slides.LayoutMapping{"Cover": 0, "Body": 1},
		}},
	}
	set := &drafterSet{reply: "# T\n## A [Cover]\n"}
	p, _ := newTestPipeline(t, set, Options{Catalog: cat})

	res, err := p.Process(context.Background(), Request{Task: "brand deck"})
	require.NoError(t, err)
	assert.Contains(t, set.drafters[0].inputs[0], "- Cover\n- Body")
	assert.Equal(t, 0, res.Presentation.Slides[0].Layout.Index)
}

func TestProcessErrors(t *testing.T) {
	p, _ := newTestPipeline(t, nil, Options{})

	res, err := p.Process(context.Background(), Request{Markdown: "just prose"})
	assert.ErrorIs(t, err, ErrNoSlides)
	require.NotNil(t, res)
	assert.Equal(t, "just prose", res.Markdown)

	_, err = p.Process(context.Background(), Request{Task: "needs a model"})
	assert.ErrorIs(t, err, ErrNoDrafter)

	_, err = p.Process(context.Background(), Request{Markdown: weeklyMarkdown, Template: "Nope"})
	assert.ErrorIs(t, err, layout.ErrUnknownTemplate)

	set := &drafterSet{err: errors.New("rate limited")}
	p, _ = newTestPipeline(t, set, Options{})
	_, err = p.Process(context.Background(), Request{Task: "x"})
	assert.ErrorContains(t, err, "rate limited")
}

func TestBuildAll(t *testing.T) {
	p, out := newTestPipeline(t, nil, Options{})
	dir := t.TempDir()

	var paths []string
	for i := 0; i < 6; i++ {
		path := filepath.Join(dir, fmt.Sprintf("deck%d.md", i))
		md := fmt.Sprintf("# Deck %d\n## A [Title Only]\n## B\n- x\n", i)
		require.NoError(t, os.WriteFile(path, []byte(md), 0644))
		paths = append(paths, path)
	}

	results, err := p.BuildAll(context.Background(), paths, "", 2)
	require.NoError(t, err)
	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, paths[i], r.Source)
		assert.Equal(t, filepath.Join(out, fmt.Sprintf("Deck %d.yaml", i)), r.OutputPath)
		assert.Equal(t, 2, r.Slides)
	}

	bad := filepath.Join(dir, "empty.md")
	require.NoError(t, os.WriteFile(bad, []byte("nothing here"), 0644))
	_, err = p.BuildAll(context.Background(), append(paths, bad), "", 2)
	assert.ErrorIs(t, err, ErrNoSlides)
}

func TestBuildFile(t *testing.T) {
	p, _ := newTestPipeline(t, nil, Options{})
	path := filepath.Join(t.TempDir(), "w.md")
	require.NoError(t, os.WriteFile(path, []byte(weeklyMarkdown), 0644))

	res, err := p.BuildFile(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(path), res.Presentation.BaseDir)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "Drafting", StageDrafting.String())
	assert.Equal(t, "Done", StageDone.String())
	assert.Equal(t, "Unknown", Stage(42).String())
}
