package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shengjie8329/ChatPPT/internal/llm"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name, FileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte("---\nname: board\ndescription: Board update\ntemplate: LGBTTemplate\n---\n\nFive slides.\n"))
	require.NoError(t, err)
	assert.Equal(t, "board", s.Name)
	assert.Equal(t, "Board update", s.Description)
	assert.Equal(t, "LGBTTemplate", s.Template)
	assert.Equal(t, "Five slides.", s.Body)

	plain, err := Parse([]byte("Just instructions."))
	require.NoError(t, err)
	assert.Empty(t, plain.Name)
	assert.Equal(t, "Just instructions.", plain.Body)
}

func TestIndex(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "weekly", "---\nname: weekly-report\ndescription: Weekly status\n---\nBody one")
	writeScenario(t, dir, "unnamed", "---\ndescription: No name\n---\nBody two")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.md"), []byte("x"), 0644))

	idx, err := NewIndex(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Count())
	assert.Equal(t, []string{"unnamed", "weekly-report"}, idx.List())
	assert.Equal(t, dir, idx.Dir())

	s, err := idx.Load("weekly-report")
	require.NoError(t, err)
	assert.Equal(t, "Body one", s.Body)
	assert.Equal(t, filepath.Join(dir, "weekly"), s.DirPath)

	_, err = idx.Load("missing")
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestIndexMissingDir(t *testing.T) {
	idx, err := NewIndex(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	assert.Zero(t, idx.Count())
	assert.Empty(t, idx.List())
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := &Scenario{
		Metadata: Metadata{Name: "launch", Description: "Product launch", Template: "MasterTemplate"},
		Body:     "- Start with the name.",
	}
	require.NoError(t, Save(dir, s))
	assert.Equal(t, filepath.Join(dir, "launch", FileName), s.Path)

	loaded, err := Load(s.Path)
	require.NoError(t, err)
	assert.Equal(t, s.Metadata, loaded.Metadata)
	assert.Equal(t, s.Body, loaded.Body)

	assert.Error(t, Save(dir, &Scenario{}))
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "weekly-report", "---\nname: weekly-report\n---\nmine")

	written, err := Seed(dir)
	require.NoError(t, err)
	assert.NotContains(t, written, "weekly-report")
	assert.Contains(t, written, "product-launch")

	s, err := Load(filepath.Join(dir, "weekly-report", FileName))
	require.NoError(t, err)
	assert.Equal(t, "mine", s.Body)

	idx, err := NewIndex(dir, nil)
	require.NoError(t, err)
	meta := idx.Get("lgbt-pride")
	require.NotNil(t, meta)
	assert.Equal(t, "LGBTTemplate", meta.Template)
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"Weekly Report":     "weekly-report",
		"  board_update  ":  "board-update",
		"Q3 -- Review!":     "q3-review",
		"周报":                "",
		"--already-fine--": "already-fine",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeName(in), in)
	}
}

type scriptedProvider struct {
	reply string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: p.reply}, nil
}

func (p *scriptedProvider) Stream(ctx context.Context, req *llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
	return nil, errors.New("not implemented")
}

func (p *scriptedProvider) Ping(ctx context.Context) error { return nil }

func TestMatcher(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "weekly-report", "---\nname: weekly-report\ndescription: Weekly status\n---\nx")
	idx, err := NewIndex(dir, nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "match", reply: `{"scenario": "weekly-report", "confidence": 0.9}`, want: "weekly-report"},
		{name: "fenced", reply: "```json\n{\"scenario\": \"weekly-report\", \"confidence\": 0.8}\n```", want: "weekly-report"},
		{name: "low confidence", reply: `{"scenario": "weekly-report", "confidence": 0.2}`},
		{name: "none", reply: `{"scenario": "none", "confidence": 0.9}`},
		{name: "unknown", reply: `{"scenario": "other", "confidence": 0.9}`},
		{name: "garbage", reply: "I think weekly-report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(&scriptedProvider{reply: tt.reply}, "", idx)
			got, err := m.Match(context.Background(), "write my weekly report")
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Scenario.Name)
		})
	}
}

func TestGenerator(t *testing.T) {
	dir := t.TempDir()
	reply := "```markdown\n---\nname: Board Update\ndescription: Quarterly board meeting\ntemplate: MasterTemplate\n---\n\nSix slides.\n```"

	s, err := NewGenerator(&scriptedProvider{reply: reply}, "", dir).Generate(context.Background(), "board meetings")
	require.NoError(t, err)
	assert.Equal(t, "board-update", s.Name)

	loaded, err := Load(filepath.Join(dir, "board-update", FileName))
	require.NoError(t, err)
	assert.Equal(t, "Six slides.", loaded.Body)
	assert.Equal(t, "Quarterly board meeting", loaded.Description)

	_, err = ParseGenerated("no frontmatter at all")
	assert.Error(t, err)
}
