package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shengjie8329/ChatPPT/internal/layout"
	"github.com/shengjie8329/ChatPPT/internal/llm"
	"github.com/shengjie8329/ChatPPT/internal/pipeline"
	"github.com/shengjie8329/ChatPPT/internal/scenario"
)

func (a *App) currentError() error {
	switch {
	case a.state.processingError != nil:
		return a.state.processingError
	case a.state.docError != nil:
		return a.state.docError
	case a.state.providerError != nil:
		return a.state.providerError
	}
	return nil
}

// suggestions returns hints for an error, most specific first
func suggestions(err error) []string {
	var notFound *scenario.NotFoundError
	switch {
	case errors.Is(err, pipeline.ErrNoSlides):
		return []string{
			"The text had no '## ' slide headings",
			"Ask the model to follow the slide format, or fix the file",
		}
	case errors.Is(err, pipeline.ErrNoDrafter):
		return []string{
			"No model is connected, so only /open FILE.md works",
			"Press [s] to configure a provider",
		}
	case errors.Is(err, layout.ErrUnresolvedLayout):
		return []string{
			"A slide label does not match any template layout",
			"Fix the [label], or turn strict layouts off in settings",
		}
	case errors.Is(err, layout.ErrUnknownTemplate):
		return []string{"Check the template name; /settings lists them"}
	case errors.As(err, &notFound):
		return []string{"Run /scenarios to see what is installed"}
	case errors.Is(err, llm.ErrUnauthorized):
		return []string{
			"Check your API key in config.yaml",
			"Or press [s] to open settings",
		}
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key"):
		return []string{"Check your API key in config.yaml", "Or press [s] to open settings"}
	case strings.Contains(errLower, "ollama") || strings.Contains(errLower, "11434"):
		return []string{"Make sure Ollama is running: ollama serve", "Or switch to a cloud provider in settings"}
	case strings.Contains(errLower, "connection") || strings.Contains(errLower, "timeout") || strings.Contains(errLower, "deadline"):
		return []string{"Check your internet connection", "Or try Ollama for offline drafting"}
	case strings.Contains(errLower, "no such file") || strings.Contains(errLower, "not found"):
		return []string{"Check the file path is correct", "Make sure the file exists and is readable"}
	case strings.Contains(errLower, "unsupported"):
		return []string{"Reference documents must be .md, .markdown, .txt or .text"}
	case strings.Contains(errLower, "rate limit") || strings.Contains(errLower, "429"):
		return []string{"You've hit the API rate limit", "Wait a moment and try again"}
	}
	return nil
}

func (a *App) renderError() string {
	var b strings.Builder
	boxWidth := min(60, max(20, a.width-4))

	// Error icon and title
	title := lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true).
		Render("Something went wrong")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// Error message
	err := a.currentError()
	errMsg := "Unknown error"
	if err != nil {
		errMsg = err.Error()
	}

	errBox := styleBox.Copy().
		Width(boxWidth).
		BorderForeground(colorError).
		Render(errMsg)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, errBox))
	b.WriteString("\n\n")

	// Suggestions based on error type
	if err != nil {
		if hints := suggestions(err); len(hints) > 0 {
			suggBox := styleBox.Copy().
				Width(boxWidth).
				BorderForeground(colorMuted).
				Render("Suggestions:\n" + strings.Join(hints, "\n"))
			b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, suggBox))
			b.WriteString("\n\n")
		}
	}

	// What the model actually sent back
	if a.state.failedReply != "" && errors.Is(err, pipeline.ErrNoSlides) {
		lines := strings.Split(a.state.failedReply, "\n")
		if len(lines) > 8 {
			lines = append(lines[:8], "...")
		}
		replyBox := styleBox.Copy().
			Width(boxWidth).
			Foreground(colorMuted).
			Render(strings.Join(lines, "\n"))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, replyBox))
		b.WriteString("\n\n")
	}

	// Actions
	status := styleStatusBar.Render("[r] Retry  [s] Settings  [n] New  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))

	return a.centerVertically(b.String())
}
