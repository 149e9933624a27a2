package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (a *App) renderNewScenario() string {
	var b strings.Builder
	boxWidth := min(70, max(20, a.width-4))

	// Header
	title := styleLogo.Render("Create New Scenario")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// Description
	desc := styleSubtitle.Render("Describe the kind of presentation this scenario drafts")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, desc))
	b.WriteString("\n\n")

	// Show generating status or input
	if a.state.generatingScenario {
		generating := styleBox.Copy().
			Width(boxWidth).
			BorderForeground(colorSecondary).
			Render(a.state.spinner.View() + " Generating scenario...")
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, generating))
	} else {
		border := colorPrimary
		if a.state.newScenarioError != nil {
			errorBox := styleBox.Copy().
				Width(boxWidth).
				BorderForeground(colorError).
				Render("Error: " + a.state.newScenarioError.Error())
			b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, errorBox))
			b.WriteString("\n\n")
			border = colorMuted
		}

		// Input box
		inputBox := styleBox.Copy().
			Width(boxWidth).
			BorderForeground(border).
			Render(a.state.input.View())
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, inputBox))
	}
	b.WriteString("\n\n")

	// Examples
	if !a.state.generatingScenario {
		examples := styleSubtitle.Render("Examples: \"quarterly board update\" or \"conference talk proposal\"")
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, examples))
		b.WriteString("\n\n")
	}

	// Status bar
	var status string
	if a.state.generatingScenario {
		status = styleStatusBar.Render("Generating...")
	} else {
		status = styleStatusBar.Render("[Enter] Create  [Esc] Cancel")
	}
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))

	return a.centerVertically(b.String())
}
