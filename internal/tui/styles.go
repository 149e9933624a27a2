package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/shengjie8329/ChatPPT/internal/layout"
)

// truncate shortens text to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

var (
	// Colors
	colorPrimary   = lipgloss.Color("#C2410C")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorSuccess   = lipgloss.Color("#10B981")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorWhite     = lipgloss.Color("#F9FAFB")

	// Logo style
	styleLogo = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	// Subtitle
	styleSubtitle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Box
	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	// Status bar
	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleSpinner = lipgloss.NewStyle().
			Foreground(colorPrimary)

	styleSelected = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)
)

// layoutBadge colors a layout name by how it was chosen
func layoutBadge(res layout.Resolution) string {
	style := lipgloss.NewStyle().Foreground(colorSuccess)
	switch res.Source {
	case layout.SourceContent, layout.SourceDefault:
		style = lipgloss.NewStyle().Foreground(colorWarning)
	case layout.SourceIndex:
		style = lipgloss.NewStyle().Foreground(colorSecondary)
	}
	return style.Render(res.Name)
}
