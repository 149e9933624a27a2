package scenario

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shengjie8329/ChatPPT/internal/agent"
	"github.com/shengjie8329/ChatPPT/internal/llm"
)

var (
	invalidNameChars = regexp.MustCompile(`[^a-z0-9-]`)
	repeatedHyphens  = regexp.MustCompile(`-+`)
)

// Generator drafts new scenarios with the model and saves them
type Generator struct {
	provider llm.Provider
	model    string
	dir      string
}

func NewGenerator(provider llm.Provider, model, dir string) *Generator {
	return &Generator{
		provider: provider,
		model:    model,
		dir:      dir,
	}
}

// Generate creates and saves a scenario from a description
func (g *Generator) Generate(ctx context.Context, description string) (*Scenario, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := g.provider.Complete(ctx, &llm.CompletionRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGeneratorPrompt(description)},
		},
		MaxTokens:   1500,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}

	s, err := ParseGenerated(resp.Content)
	if err != nil {
		return nil, err
	}

	if err := Save(g.dir, s); err != nil {
		return nil, err
	}
	return s, nil
}

func buildGeneratorPrompt(description string) string {
	return fmt.Sprintf(`Create a presentation scenario based on this description:

%q

A scenario tells a slide-writing assistant how to structure a kind of deck.
Generate a complete SCENARIO.md file with YAML frontmatter and a markdown body.

Requirements:
1. "name" is lowercase with hyphens (e.g. weekly-report, board-update)
2. "description" is one sentence saying when to use the scenario
3. "template" is MasterTemplate unless the description asks for the LGBT style, then LGBTTemplate
4. The body lists how many slides to write, what each covers, and which layouts to use:
   Title Only, Title and Content, Title and Picture, or "Title, Content, and Picture"

Respond with ONLY the SCENARIO.md content, starting with ---.`, description)
}

// ParseGenerated reads a model-written scenario and normalises its name
func ParseGenerated(content string) (*Scenario, error) {
	s, err := Parse([]byte(agent.StripFence(content)))
	if err != nil {
		return nil, err
	}

	s.Name = SanitizeName(s.Name)
	if s.Name == "" {
		return nil, fmt.Errorf("scenario name not found in frontmatter")
	}
	if s.Body == "" {
		return nil, fmt.Errorf("scenario %s has no instructions", s.Name)
	}
	return s, nil
}

// SanitizeName lowercases a name and keeps only letters, digits and hyphens
func SanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer(" ", "-", "_", "-").Replace(name)
	name = invalidNameChars.ReplaceAllString(name, "")
	name = repeatedHyphens.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}
