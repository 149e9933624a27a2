package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shengjie8329/ChatPPT/internal/agent"
	"github.com/shengjie8329/ChatPPT/internal/config"
	"github.com/shengjie8329/ChatPPT/internal/layout"
	"github.com/shengjie8329/ChatPPT/internal/llm"
	"github.com/shengjie8329/ChatPPT/internal/render"
	"github.com/shengjie8329/ChatPPT/internal/scenario"
)

// ScenarioDir returns the configured scenario directory
func ScenarioDir(cfg *config.Config) (string, error) {
	if cfg.Templates.Scenarios != "" {
		return config.ResolvePath(cfg.Templates.Scenarios)
	}
	return config.ResolvePath("scenarios")
}

// LoadCatalog loads the configured template catalog, or the bundled one,
// and applies the configured default template.
func LoadCatalog(cfg *config.Config) (*layout.Catalog, error) {
	path, err := config.ResolvePath(cfg.Templates.Catalog)
	if err != nil {
		return nil, err
	}
	catalog, err := layout.LoadCatalogOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load template catalog: %w", err)
	}
	if cfg.Templates.Default != "" {
		if _, err := catalog.Get(cfg.Templates.Default); err != nil {
			return nil, err
		}
		catalog.Default = cfg.Templates.Default
	}
	return catalog, nil
}

// NewFromConfig wires a pipeline from config. A nil provider gives a
// pipeline that only renders markdown.
func NewFromConfig(cfg *config.Config, provider llm.Provider, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := render.NewRenderer(cfg.Output.Format, cfg.Output.EmbedImages)
	if err != nil {
		return nil, err
	}
	generator := render.NewGenerator(renderer, render.GeneratorOptions{
		OutDir: cfg.Output.Dir,
		Strict: cfg.Templates.Strict,
		Logger: logger,
	})

	dir, err := ScenarioDir(cfg)
	if err != nil {
		return nil, err
	}
	scenarios, err := scenario.NewIndex(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}

	opts := Options{
		Catalog:   catalog,
		Generator: generator,
		Scenarios: scenarios,
		Logger:    logger,
	}

	if provider != nil {
		opts.Matcher = scenario.NewMatcher(provider, cfg.Model, scenarios)
		opts.NewDrafter = func(systemPrompt string) Drafter {
			return agent.New(provider, agent.Options{
				Name:         "formatter",
				Model:        cfg.Model,
				SystemPrompt: systemPrompt,
				MaxTurns:     cfg.Agent.MaxTurns,
				MaxTokens:    cfg.Agent.MaxTokens,
				Temperature:  cfg.Agent.Temperature,
				Logger:       logger,
			})
		}
	}

	logger.Debug("pipeline ready",
		zap.Strings("templates", catalog.Names()),
		zap.Int("scenarios", scenarios.Count()),
		zap.String("format", renderer.Extension()),
		zap.String("out", generator.OutDir()),
	)

	return NewPipeline(opts), nil
}

// Scenarios returns the scenario index, if any
func (p *Pipeline) Scenarios() *scenario.Index {
	return p.scenarios
}
