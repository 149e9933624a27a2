package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shengjie8329/ChatPPT/internal/pipeline"
)

func (a *App) renderReference() string {
	if a.state.reference == nil {
		return a.renderWelcome()
	}

	var b strings.Builder
	doc := a.state.reference
	meta := doc.Metadata
	boxWidth := min(70, max(20, a.width-4))

	// Document info header
	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render(meta.Title)

	// Metadata line
	metaParts := []string{
		strings.ToUpper(meta.SourceFormat),
		meta.FileSizeHuman(),
		fmt.Sprintf("~%d words", meta.WordCount),
	}
	metaLine := styleSubtitle.Render(strings.Join(metaParts, "  |  "))

	// How much of the model's context the reference would take
	tokens := pipeline.EstimateTokens(doc.Content)
	limit := getContextLimit(a.state.config.Model)
	ctxStyle := styleSubtitle
	if tokens > limit/2 {
		ctxStyle = lipgloss.NewStyle().Foreground(colorWarning)
	}
	ctxLine := ctxStyle.Render(fmt.Sprintf("~%.1fk tokens of %.0fk context", float64(tokens)/1000, float64(limit)/1000))

	// Document info box
	infoContent := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		metaLine,
		ctxLine,
	)
	infoBox := styleBox.Copy().
		Width(boxWidth).
		BorderForeground(colorSuccess).
		Render(infoContent)

	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, infoBox))
	b.WriteString("\n\n")

	// Preview
	previewLabel := styleSubtitle.Render("Preview:")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, previewLabel))
	b.WriteString("\n")

	previewBox := styleBox.Copy().
		Width(boxWidth).
		Foreground(colorMuted).
		Render(doc.Preview)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, previewBox))
	b.WriteString("\n\n")

	// Instruction prompt
	promptLabel := lipgloss.NewStyle().
		Foreground(colorWhite).
		Render("What deck should be built from this document?")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, promptLabel))
	b.WriteString("\n\n")

	// Input
	inputBox := styleBox.Copy().
		Width(boxWidth).
		BorderForeground(colorSecondary).
		Render(a.state.input.View())
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, inputBox))
	b.WriteString("\n\n")

	// Status bar
	statusBar := styleStatusBar.Render("[Enter] Build  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, statusBar))

	return a.centerVertically(b.String())
}
