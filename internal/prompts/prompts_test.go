package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFormatterPrompt(t *testing.T) {
	base := BuildFormatterPrompt("", "")
	assert.NotEmpty(t, base)
	assert.Contains(t, base, "[Layout Name]")
	assert.Equal(t, base, BuildFormatterPrompt("weekly", "   "))

	withScenario := BuildFormatterPrompt("weekly", "Summarise the week in five slides.\n")
	assert.True(t, strings.HasPrefix(withScenario, base))
	assert.Contains(t, withScenario, "Scenario: weekly")
	assert.True(t, strings.HasSuffix(withScenario, "five slides."))
}

func TestBuildTaskPrompt(t *testing.T) {
	assert.Equal(t, "write a report", BuildTaskPrompt("write a report", "\n"))

	got := BuildTaskPrompt("write a report", "Q3 revenue grew 15%")
	assert.Contains(t, got, "<reference>\nQ3 revenue grew 15%\n</reference>")
}

func TestBuildLayoutHint(t *testing.T) {
	assert.Empty(t, BuildLayoutHint(nil))
	assert.Contains(t, BuildLayoutHint([]string{"Title", "Overview"}), "- Title\n- Overview")
}
