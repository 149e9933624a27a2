package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (a *App) renderHelp() string {
	var b strings.Builder

	// Title
	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render("Help")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// Commands
	commands := []string{
		"  /open FILE.md    Render slide markdown as is",
		"  /ref FILE        Use a document as reference",
		"  /template NAME   Pick the template (empty: default)",
		"  /scenario NAME   Pick a scenario (auto, off)",
		"  /scenarios       Browse scenarios",
		"  /new-scenario    Generate a scenario",
		"  /clear           Forget the conversation",
		"  /settings, /s    Open settings",
		"  /help, /h        Show this help",
		"  /quit, /q        Quit",
		"",
		"  Anything else is a task for the model,",
		"  and a file path loads it as reference",
	}

	commandsBox := styleBox.Copy().
		Width(58).
		Render(strings.Join(commands, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, commandsBox))
	b.WriteString("\n\n")

	// Keyboard shortcuts
	shortcuts := []string{
		"  Esc            Go back / Quit",
		"  Enter          Submit input",
		"  Tab            Slide list (after a build)",
		"  PgUp/PgDn      Scroll the preview",
		"  Ctrl+N         Start a new deck",
	}

	shortcutsTitle := styleSubtitle.Render("Keyboard Shortcuts")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, shortcutsTitle))
	b.WriteString("\n\n")

	shortcutsBox := styleBox.Copy().
		Width(58).
		Render(strings.Join(shortcuts, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, shortcutsBox))
	b.WriteString("\n\n")

	// Instructions
	instructions := styleStatusBar.Render("[Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}
