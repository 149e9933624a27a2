package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shengjie8329/ChatPPT/internal/pipeline"
)

func (a *App) renderScenarios() string {
	var b strings.Builder
	boxWidth := min(70, max(20, a.width-4))

	// Header
	title := styleLogo.Render("Scenarios")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// Description
	desc := styleSubtitle.Render("A scenario tells the model what kind of deck to draft")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, desc))
	b.WriteString("\n\n")

	list := a.scenarioList()
	if len(list) == 0 {
		dir := "the scenarios directory"
		if a.state.pipeline != nil && a.state.pipeline.Scenarios() != nil {
			dir = a.state.pipeline.Scenarios().Dir()
		}
		empty := styleBox.Copy().
			Width(boxWidth).
			Foreground(colorMuted).
			Render(fmt.Sprintf("No scenarios installed.\n\nRun `chatppt scenarios seed` or add folders with SCENARIO.md to:\n%s", dir))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, empty))
	} else {
		var lines strings.Builder
		for i, meta := range list {
			cursor := "  "
			style := lipgloss.NewStyle().Foreground(colorWhite)
			if i == a.state.scenarioSelected {
				cursor = "> "
				style = styleSelected
			}
			name := meta.Name
			if meta.Name == a.state.scenario {
				name += " (active)"
			}
			lines.WriteString(style.Render(cursor+name) + "\n")
			if meta.Description != "" {
				lines.WriteString(styleSubtitle.Render("    "+truncate(meta.Description, boxWidth-8)) + "\n")
			}
			if meta.Template != "" {
				lines.WriteString(styleSubtitle.Render("    template: "+meta.Template) + "\n")
			}
		}

		listBox := styleBox.Copy().
			Width(boxWidth).
			BorderForeground(colorPrimary).
			Render(strings.TrimRight(lines.String(), "\n"))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, listBox))
	}
	b.WriteString("\n\n")

	current := "none"
	switch a.state.scenario {
	case "":
	case pipeline.AutoScenario:
		current = "auto-match"
	default:
		current = a.state.scenario
	}
	usage := styleSubtitle.Render("Current: " + current)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, usage))
	b.WriteString("\n\n")

	// Status bar
	statusBar := styleStatusBar.Render("[Enter] Use  [a] Auto-match  [x] None  [n] New  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, statusBar))

	return a.centerVertically(b.String())
}
