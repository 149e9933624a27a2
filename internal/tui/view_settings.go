package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shengjie8329/ChatPPT/internal/config"
	"github.com/shengjie8329/ChatPPT/internal/render"
)

func (a *App) renderSettings() string {
	switch a.state.settingsMode {
	case "provider":
		return a.renderSettingsList("Select Provider", a.providerNames(), a.state.config.Provider)
	case "model":
		return a.renderSettingsList("Select Model", a.modelNames(), a.state.config.Model)
	case "template":
		return a.renderSettingsList("Default Template", a.templateNames(), a.state.config.Templates.Default)
	case "format":
		return a.renderSettingsList("Output Format", render.Formats, a.state.config.Output.Format)
	case "apikey":
		return a.renderSettingsAPIKey()
	default:
		return a.renderSettingsMain()
	}
}

func (a *App) renderSettingsMain() string {
	var b strings.Builder
	cfg := a.state.config

	// Title
	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render("Settings")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	// Current config
	provider := config.GetProvider(cfg.Provider)
	providerName := cfg.Provider
	if provider != nil {
		providerName = provider.Name
	}

	// Mask API key
	maskedKey := "Not set"
	if cfg.APIKey != "" {
		if len(cfg.APIKey) > 8 {
			maskedKey = cfg.APIKey[:4] + "****" + cfg.APIKey[len(cfg.APIKey)-4:]
		} else {
			maskedKey = "****"
		}
	}

	strict := "off"
	if cfg.Templates.Strict {
		strict = "on"
	}

	configLines := []string{
		fmt.Sprintf("  Provider: %s", providerName),
		fmt.Sprintf("  Model:    %s", cfg.Model),
		fmt.Sprintf("  API Key:  %s", maskedKey),
		"",
		fmt.Sprintf("  Template: %s", a.defaultTemplate()),
		fmt.Sprintf("  Format:   %s", cfg.Output.Format),
		fmt.Sprintf("  Output:   %s", cfg.Output.Dir),
		fmt.Sprintf("  Strict:   %s", strict),
	}

	configBox := styleBox.Copy().
		Width(50).
		Render(strings.Join(configLines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, configBox))
	b.WriteString("\n\n")

	// Actions
	actions := []string{
		"  [p] Change provider",
		"  [m] Change model",
		"  [k] Update API key",
		"  [t] Default template",
		"  [f] Output format",
		"  [l] Toggle strict layouts",
		"  [r] Reset setup",
	}
	actionsBox := styleBox.Copy().
		Width(50).
		Render(strings.Join(actions, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, actionsBox))
	b.WriteString("\n\n")

	// Instructions
	instructions := styleStatusBar.Render("[Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}

func (a *App) renderSettingsList(heading string, items []string, current string) string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render(heading)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	if len(items) == 0 {
		desc := styleSubtitle.Render("Nothing to choose from; edit config.yaml instead")
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, desc))
		b.WriteString("\n\n")
	} else {
		var lines []string
		for i, item := range items {
			cursor := "  "
			if i == a.state.settingsSelected {
				cursor = "> "
			}
			// Mark current value
			mark := ""
			if item == current {
				mark = " (current)"
			}
			line := fmt.Sprintf("%s%s%s", cursor, item, mark)
			if i == a.state.settingsSelected {
				line = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Render(line)
			}
			lines = append(lines, line)
		}

		listBox := styleBox.Copy().
			Width(50).
			Render(strings.Join(lines, "\n"))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, listBox))
		b.WriteString("\n\n")
	}

	instructions := styleStatusBar.Render("[Up/Down] Navigate  [Enter] Select  [Esc] Cancel")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}

func (a *App) renderSettingsAPIKey() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render("Update API Key")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	desc := styleSubtitle.Render("Enter your new API key")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, desc))
	b.WriteString("\n\n")

	inputBox := styleBox.Copy().
		Width(50).
		BorderForeground(colorPrimary).
		Render(a.state.apiKeyInput.View())
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, inputBox))
	b.WriteString("\n\n")

	instructions := styleStatusBar.Render("[Enter] Save  [Esc] Cancel")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}

func (a *App) providerNames() []string {
	names := make([]string, len(config.Providers))
	for i, p := range config.Providers {
		names[i] = p.ID
	}
	return names
}

func (a *App) modelNames() []string {
	if p := config.GetProvider(a.state.config.Provider); p != nil {
		return p.Models
	}
	return nil
}

func (a *App) templateNames() []string {
	if a.state.pipeline == nil {
		return nil
	}
	return a.state.pipeline.Catalog().Names()
}

func (a *App) defaultTemplate() string {
	if a.state.pipeline != nil {
		return a.state.pipeline.Catalog().Default
	}
	return a.state.config.Templates.Default
}

func (a *App) settingsItems() []string {
	switch a.state.settingsMode {
	case "provider":
		return a.providerNames()
	case "model":
		return a.modelNames()
	case "template":
		return a.templateNames()
	case "format":
		return render.Formats
	}
	return nil
}

// handleSettingsKey reports whether the key was consumed; in API key
// mode typing falls through to the input.
func (a *App) handleSettingsKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	cfg := a.state.config

	switch a.state.settingsMode {
	case "":
		switch msg.String() {
		case "p", "m", "t", "f":
			a.state.settingsMode = map[string]string{"p": "provider", "m": "model", "t": "template", "f": "format"}[msg.String()]
			a.state.settingsSelected = 0
		case "k":
			a.state.settingsMode = "apikey"
			a.state.apiKeyInput.Focus()
			return textinput.Blink, true
		case "l":
			cfg.Templates.Strict = !cfg.Templates.Strict
			return a.saveSettings(false), true
		case "r":
			a.state.needsSetup = true
			a.state.setupStep = 0
			a.state.selectedProvider = 0
			a.view = viewSetup
		}
		return nil, true

	case "apikey":
		if key.Matches(msg, keys.Enter) {
			cfg.APIKey = strings.TrimSpace(a.state.apiKeyInput.Value())
			return a.saveSettings(true), true
		}
		return nil, false
	}

	items := a.settingsItems()
	switch {
	case key.Matches(msg, keys.Up):
		if a.state.settingsSelected > 0 {
			a.state.settingsSelected--
		}
	case key.Matches(msg, keys.Down):
		if a.state.settingsSelected < len(items)-1 {
			a.state.settingsSelected++
		}
	case key.Matches(msg, keys.Enter):
		if len(items) == 0 {
			return nil, true
		}
		choice := items[a.state.settingsSelected]
		switch a.state.settingsMode {
		case "provider":
			info := config.GetProvider(choice)
			cfg.Provider = info.ID
			cfg.Model = info.DefaultModel
			cfg.APIKey = ""
			if info.NeedsAPIKey {
				a.state.settingsMode = "apikey"
				a.state.apiKeyInput.Focus()
				return textinput.Blink, true
			}
			return a.saveSettings(true), true
		case "model":
			cfg.Model = choice
			return a.saveSettings(true), true
		case "template":
			cfg.Templates.Default = choice
			a.state.template = ""
			return a.saveSettings(false), true
		case "format":
			cfg.Output.Format = choice
			return a.saveSettings(false), true
		}
	}
	return nil, true
}

// saveSettings writes the config and either reconnects or rebuilds the pipeline
func (a *App) saveSettings(reconnect bool) tea.Cmd {
	a.state.settingsMode = ""
	a.state.settingsSelected = 0
	a.state.apiKeyInput.Reset()

	if err := a.state.config.Save(); err != nil {
		a.showError(err)
		return nil
	}
	if reconnect {
		a.state.providerReady = false
		return a.testProvider()
	}
	a.buildPipeline()
	return nil
}
