package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/shengjie8329/ChatPPT/internal/pipeline"
)

var processingStages = []pipeline.Stage{
	pipeline.StageDrafting,
	pipeline.StageParsing,
	pipeline.StageResolving,
	pipeline.StageRendering,
}

func (a *App) renderProcessing() string {
	var b strings.Builder

	// Title
	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render("Building slides")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// What was asked
	if req := a.state.lastRequest; req != nil && req.Task != "" {
		asked := styleSubtitle.Render("> " + truncate(firstLine(req.Task), 55))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, asked))
		b.WriteString("\n\n")
	}

	current := pipeline.StageDrafting
	if a.state.progress != nil {
		current = a.state.progress.Stage
	} else if req := a.state.lastRequest; req != nil && req.Markdown != "" {
		current = pipeline.StageParsing
	}
	skipDraft := a.state.lastRequest != nil && a.state.lastRequest.Markdown != ""

	var stageLines []string
	for _, stage := range processingStages {
		var icon string
		var style lipgloss.Style

		switch {
		case stage == pipeline.StageDrafting && skipDraft:
			icon = "[-]"
			style = lipgloss.NewStyle().Foreground(colorMuted)
		case stage < current:
			// Completed
			icon = "[x]"
			style = lipgloss.NewStyle().Foreground(colorSuccess)
		case stage == current:
			icon = a.state.spinner.View()
			style = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
		default:
			// Pending
			icon = "[ ]"
			style = lipgloss.NewStyle().Foreground(colorMuted)
		}

		line := style.Render(fmt.Sprintf("  %s  %-12s", icon, stage))
		stageLines = append(stageLines, line)
	}

	stagesBox := styleBox.Copy().
		Width(min(60, max(20, a.width-4))).
		Render(strings.Join(stageLines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, stagesBox))
	b.WriteString("\n\n")

	// Tail of the draft as the model writes it
	if a.state.draft != "" && current == pipeline.StageDrafting {
		b.WriteString(a.renderDraftTail())
		b.WriteString("\n\n")
	}

	// Message
	if a.state.progress != nil && a.state.progress.Message != "" {
		msg := styleSubtitle.Render(truncate(a.state.progress.Message, 60))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, msg))
		b.WriteString("\n\n")
	}

	elapsed := time.Since(a.state.processStart).Round(100 * time.Millisecond)
	status := styleStatusBar.Render(fmt.Sprintf("%s  [Esc] Cancel", elapsed))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))

	return a.centerVertically(b.String())
}

const draftTailLines = 6

func (a *App) renderDraftTail() string {
	lines := strings.Split(strings.TrimRight(a.state.draft, "\n"), "\n")
	if len(lines) > draftTailLines {
		lines = lines[len(lines)-draftTailLines:]
	}

	width := min(60, max(20, a.width-4))
	for i, line := range lines {
		lines[i] = truncate(line, width-4)
	}

	header := styleSubtitle.Render(fmt.Sprintf("~%d tokens drafted", pipeline.EstimateTokens(a.state.draft)))
	box := styleBox.Copy().
		Width(width).
		Foreground(colorMuted).
		Render(strings.Join(lines, "\n"))
	return lipgloss.PlaceHorizontal(a.width, lipgloss.Center, header) + "\n" +
		lipgloss.PlaceHorizontal(a.width, lipgloss.Center, box)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
