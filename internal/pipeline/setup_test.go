package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shengjie8329/ChatPPT/internal/config"
	"github.com/shengjie8329/ChatPPT/internal/layout"
	"github.com/shengjie8329/ChatPPT/internal/scenario"
)

func TestNewFromConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)

	_, err := scenario.Seed(filepath.Join(home, "scenarios"))
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Format = "markdown"
	cfg.Templates.Default = "LGBTTemplate"

	p, err := NewFromConfig(cfg, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "LGBTTemplate", p.Catalog().Default)
	assert.Equal(t, 3, p.Scenarios().Count())

	res, err := p.Process(context.Background(), Request{Markdown: weeklyMarkdown})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "Weekly Report.md"), res.OutputPath)

	_, err = p.Process(context.Background(), Request{Task: "draft something"})
	assert.ErrorIs(t, err, ErrNoDrafter)
}

func TestNewFromConfigErrors(t *testing.T) {
	t.Setenv(config.HomeEnv, t.TempDir())

	cfg := config.DefaultConfig()
	cfg.Templates.Default = "Nope"
	_, err := NewFromConfig(cfg, nil, nil)
	assert.ErrorIs(t, err, layout.ErrUnknownTemplate)

	cfg = config.DefaultConfig()
	cfg.Output.Format = "pdf"
	_, err = NewFromConfig(cfg, nil, nil)
	assert.ErrorContains(t, err, "unknown output format")
}
