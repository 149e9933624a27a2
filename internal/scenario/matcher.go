package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shengjie8329/ChatPPT/internal/agent"
	"github.com/shengjie8329/ChatPPT/internal/llm"
)

// Matcher picks the scenario that best fits a task description
type Matcher struct {
	provider llm.Provider
	model    string
	index    *Index
}

func NewMatcher(provider llm.Provider, model string, index *Index) *Matcher {
	return &Matcher{
		provider: provider,
		model:    model,
		index:    index,
	}
}

// MatchResult contains the matching result
type MatchResult struct {
	Scenario   *Metadata
	Confidence float64
}

// Match returns nil, nil when no scenario fits well enough
func (m *Matcher) Match(ctx context.Context, task string) (*MatchResult, error) {
	all := m.index.All()
	if len(all) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := m.provider.Complete(ctx, &llm.CompletionRequest{
		Model: m.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildMatchingPrompt(task, all)},
		},
		MaxTokens:   100,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, err
	}

	return m.parseResponse(resp.Content), nil
}

func buildMatchingPrompt(task string, scenarios []*Metadata) string {
	var sb strings.Builder
	sb.WriteString("Match this presentation request to the best scenario.\n\n")
	sb.WriteString(fmt.Sprintf("Request: %q\n\n", task))
	sb.WriteString("Available scenarios:\n")

	for _, s := range scenarios {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", s.Name, s.Description))
	}

	sb.WriteString("\nRespond with JSON only: {\"scenario\": \"name-or-none\", \"confidence\": 0.0-1.0}")
	sb.WriteString("\nUse \"none\" if no scenario matches well (confidence < 0.5)")

	return sb.String()
}

// parseResponse treats anything unparseable as no match
func (m *Matcher) parseResponse(content string) *MatchResult {
	content = agent.StripFence(content)

	var result struct {
		Scenario   string  `json:"scenario"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil
	}

	if result.Scenario == "none" || result.Scenario == "" || result.Confidence < 0.5 {
		return nil
	}

	meta := m.index.Get(result.Scenario)
	if meta == nil {
		return nil
	}

	return &MatchResult{
		Scenario:   meta,
		Confidence: result.Confidence,
	}
}
