package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (a *App) renderResult() string {
	res := a.state.result
	if res == nil {
		return a.renderWelcome()
	}

	var b strings.Builder
	boxWidth := a.previewWidth()

	// Deck info (small)
	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render(res.Deck.Title)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n")

	info := []string{
		fmt.Sprintf("%d slides", res.Deck.Len()),
		res.Template,
	}
	if res.Scenario != "" {
		info = append(info, res.Scenario)
	}
	if res.Truncated {
		info = append(info, "reference truncated")
	}
	infoLine := styleSubtitle.Render(strings.Join(info, "  |  "))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, infoLine))
	b.WriteString("\n")

	saved := lipgloss.NewStyle().Foreground(colorSuccess).Render("Saved " + res.OutputPath)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, saved))
	b.WriteString("\n\n")

	// Rendered slide markdown
	previewBox := styleBox.Copy().
		Width(boxWidth).
		BorderForeground(colorPrimary).
		Render(a.state.preview.View())
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, previewBox))
	b.WriteString("\n\n")

	// Input for follow-up
	inputBox := styleBox.Copy().
		Width(boxWidth).
		BorderForeground(colorMuted).
		Render(a.state.input.View())
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, inputBox))
	b.WriteString("\n\n")

	status := styleStatusBar.Render(fmt.Sprintf("%3.f%%  [Enter] Revise  [Tab] Slides  [PgUp/PgDn] Scroll  [Ctrl+N] New  [Esc] Back",
		a.state.preview.ScrollPercent()*100))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))

	return a.centerVertically(b.String())
}
