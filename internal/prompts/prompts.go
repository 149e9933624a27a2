package prompts

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed formatter.md
var Formatter string

// BuildFormatterPrompt constructs the agent's system prompt.
// If a scenario is provided, its instructions are appended.
func BuildFormatterPrompt(scenarioName, scenarioBody string) string {
	base := strings.TrimSpace(Formatter)

	scenarioBody = strings.TrimSpace(scenarioBody)
	if scenarioName != "" && scenarioBody != "" {
		return fmt.Sprintf("%s\n\n---\n\nScenario: %s\n\nFollow these additional instructions:\n\n%s",
			base,
			scenarioName,
			scenarioBody,
		)
	}

	return base
}

// BuildTaskPrompt wraps the user's task with optional reference material
func BuildTaskPrompt(task, reference string) string {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return task
	}
	return fmt.Sprintf("%s\n\nUse this reference material:\n\n<reference>\n%s\n</reference>", task, reference)
}

// BuildLayoutHint tells the agent which layout names a template offers
// when they differ from the standard four.
func BuildLayoutHint(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return "The selected template offers these layout names. Prefer them in the square brackets:\n\n- " +
		strings.Join(names, "\n- ")
}
