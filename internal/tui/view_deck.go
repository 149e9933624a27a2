package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shengjie8329/ChatPPT/internal/render"
)

// renderDeck lists the resolved slides with the selected one expanded
func (a *App) renderDeck() string {
	res := a.state.result
	if res == nil || res.Presentation == nil {
		return a.renderWelcome()
	}
	slides := res.Presentation.Slides

	boxWidth := min(70, max(20, a.width-4))
	leftPad := (a.width - boxWidth) / 2
	if leftPad < 2 {
		leftPad = 2
	}
	indent := strings.Repeat(" ", leftPad)

	// Fixed heights
	headerHeight := 3 // Title + template + blank line
	footerHeight := 2 // Blank line + status bar

	availableHeight := a.height - headerHeight - footerHeight
	if availableHeight < 5 {
		availableHeight = 5
	}

	// === BUILD HEADER ===
	var header strings.Builder
	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render(res.Deck.Title)
	header.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	header.WriteString("\n")
	tplLine := styleSubtitle.Render(fmt.Sprintf("%d slides on %s", len(slides), res.Template))
	header.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, tplLine))
	header.WriteString("\n\n")

	// === BUILD ALL SLIDE LINES ===
	var lines []string
	selectedLine := 0
	for i, s := range slides {
		cursor := "  "
		style := lipgloss.NewStyle().Foreground(colorWhite)
		if i == a.state.deckSelected {
			cursor = "> "
			style = styleSelected
			selectedLine = len(lines)
		}
		heading := style.Render(fmt.Sprintf("%s%2d. %s", cursor, i+1, truncate(s.Title, boxWidth-24)))
		lines = append(lines, indent+heading+"  "+layoutBadge(s.Layout))

		if i == a.state.deckSelected {
			for _, detail := range slideDetails(s, boxWidth-8) {
				lines = append(lines, indent+"      "+styleSubtitle.Render(detail))
			}
		}
	}

	// === APPLY SCROLL ===
	// Keep the selected slide in view
	if selectedLine < a.state.deckScroll {
		a.state.deckScroll = selectedLine
	}
	if selectedLine >= a.state.deckScroll+availableHeight {
		a.state.deckScroll = selectedLine - availableHeight + 1
	}
	maxScroll := len(lines) - availableHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if a.state.deckScroll > maxScroll {
		a.state.deckScroll = maxScroll
	}

	endIdx := min(len(lines), a.state.deckScroll+availableHeight)
	visible := lines[a.state.deckScroll:endIdx]

	// Pad to fill available height
	var body strings.Builder
	body.WriteString(strings.Join(visible, "\n"))
	if pad := availableHeight - len(visible); pad > 0 {
		body.WriteString(strings.Repeat("\n", pad))
	}

	status := styleStatusBar.Render("[j/k] Select  [Tab] Preview  [Esc] Back")
	footer := lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status)

	return header.String() + body.String() + "\n" + footer
}

// slideDetails describes one slide: how its layout was chosen and its content
func slideDetails(s render.Slide, width int) []string {
	var out []string

	label := s.LayoutKey
	if label == "" {
		label = "(none)"
	}
	out = append(out, fmt.Sprintf("layout %d via %s, label %s", s.Layout.Index, s.Layout.Source, label))

	for _, bullet := range s.Bullets {
		for j, line := range strings.Split(wrapText(bullet, width-2), "\n") {
			prefix := "- "
			if j > 0 {
				prefix = "  "
			}
			out = append(out, prefix+line)
		}
	}
	if s.HasImage() {
		out = append(out, "image: "+s.ImagePath)
	}
	if !s.HasBullets() && !s.HasImage() {
		out = append(out, "(title only)")
	}
	return out
}

// wrapText wraps text to fit within maxWidth, preserving words
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 60
	}
	if len(text) <= maxWidth {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		if i > 0 {
			if lineLen+1+len(word) > maxWidth {
				result.WriteString("\n")
				lineLen = 0
			} else {
				result.WriteString(" ")
				lineLen++
			}
		}
		result.WriteString(word)
		lineLen += len(word)
	}

	return result.String()
}
