package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const logo = `
  ██████╗██╗  ██╗ █████╗ ████████╗██████╗ ██████╗ ████████╗
 ██╔════╝██║  ██║██╔══██╗╚══██╔══╝██╔══██╗██╔══██╗╚══██╔══╝
 ██║     ███████║███████║   ██║   ██████╔╝██████╔╝   ██║
 ██║     ██╔══██║██╔══██║   ██║   ██╔═══╝ ██╔═══╝    ██║
 ╚██████╗██║  ██║██║  ██║   ██║   ██║     ██║        ██║
  ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚═╝     ╚═╝        ╚═╝
`

func (a *App) renderWelcome() string {
	// Logo
	logoRendered := styleLogo.Render(logo)

	// Subtitle
	subtitle := styleSubtitle.Render("Slides from a sentence")

	// Connection status
	var status string
	switch {
	case a.state.providerReady:
		status = lipgloss.NewStyle().Foreground(colorSuccess).
			Render(fmt.Sprintf("%s via %s", a.state.config.Model, a.state.config.Provider))
	case a.state.providerError != nil:
		status = lipgloss.NewStyle().Foreground(colorWarning).
			Render("No model: " + truncate(a.state.providerError.Error(), 50) + "  (/open still works)")
	default:
		status = styleSubtitle.Render(fmt.Sprintf("Connecting to %s...", a.state.config.Provider))
	}

	// Deck choices
	choices := styleSubtitle.Render(fmt.Sprintf("template: %s   scenario: %s",
		orDefault(a.state.template, a.defaultTemplate()),
		orDefault(a.state.scenario, "none"),
	))

	inputBox := styleBox.Copy().
		Width(min(70, max(20, a.width-4))).
		BorderForeground(colorSecondary).
		Render(a.state.input.View())

	// Status bar
	statusBar := styleStatusBar.Render("[Enter] Build  [/help] Commands  [Esc] Quit")

	// Combine main content
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		logoRendered,
		subtitle,
		"",
		status,
		choices,
		"",
		inputBox,
	)

	// Center content on screen (leave room for status bar)
	mainArea := lipgloss.Place(
		a.width,
		a.height-2,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)

	// Status bar centered at bottom
	statusLine := lipgloss.PlaceHorizontal(a.width, lipgloss.Center, statusBar)

	return lipgloss.JoinVertical(lipgloss.Left, mainArea, statusLine)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
