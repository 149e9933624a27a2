package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/shengjie8329/ChatPPT/internal/config"
	"github.com/shengjie8329/ChatPPT/internal/document"
	"github.com/shengjie8329/ChatPPT/internal/llm"
	"github.com/shengjie8329/ChatPPT/internal/pipeline"
	"github.com/shengjie8329/ChatPPT/internal/prompts"
	"github.com/shengjie8329/ChatPPT/internal/scenario"
)

type view int

const (
	viewWelcome view = iota
	viewSetup
	viewReference
	viewProcessing
	viewResult
	viewDeck
	viewScenarios
	viewNewScenario
	viewSettings
	viewHelp
	viewError
)

const defaultPlaceholder = "Describe a deck, open a file, or /help..."

type App struct {
	width    int
	height   int
	view     view
	state    *state
	logger   *zap.Logger
	program  *tea.Program
	quitting bool
}

// NewApp loads the config and starts in the setup wizard when there is none
func NewApp(logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := newState()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("config unreadable, using defaults", zap.Error(err))
	}
	if cfg == nil {
		s.needsSetup = true
		s.config = config.DefaultConfig()
	} else {
		s.config = cfg
	}

	return &App{
		view:   viewWelcome,
		state:  s,
		logger: logger,
	}
}

// SetProgram lets pipeline progress reach the running program
func (a *App) SetProgram(p *tea.Program) {
	a.program = p
}

func (a *App) Init() tea.Cmd {
	if a.state.needsSetup {
		a.view = viewSetup
		return tea.Batch(tea.WindowSize(), textinput.Blink)
	}

	// Test provider connection
	return tea.Batch(
		tea.WindowSize(),
		textinput.Blink,
		a.testProvider(),
	)
}

func (a *App) testProvider() tea.Cmd {
	cfg := *a.state.config
	logger := a.logger
	return func() tea.Msg {
		provider, err := llm.NewProvider(&cfg, logger)
		if err != nil {
			return providerErrorMsg{err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := provider.Ping(ctx); err != nil {
			return providerErrorMsg{err}
		}

		return providerReadyMsg{provider}
	}
}

// buildPipeline rebuilds the pipeline from the current config and provider.
// Without a provider it still renders markdown.
func (a *App) buildPipeline() {
	p, err := pipeline.NewFromConfig(a.state.config, a.state.provider, a.logger)
	if err != nil {
		a.logger.Error("pipeline setup failed", zap.Error(err))
		a.state.processingError = err
		a.view = viewError
		return
	}
	p.SetProgressCallback(func(pr pipeline.Progress) {
		if a.program != nil {
			a.program.Send(progressMsg(pr))
		}
	})
	p.SetDraftCallback(func(chunk string) {
		if a.program != nil {
			a.program.Send(draftChunkMsg(chunk))
		}
	})
	a.state.pipeline = p
}

type setupCompleteMsg struct{ config *config.Config }
type setupErrorMsg struct{ error }
type providerReadyMsg struct{ provider llm.Provider }
type providerErrorMsg struct{ error }
type progressMsg pipeline.Progress
type draftChunkMsg string
type pipelineDoneMsg struct {
	result *pipeline.Result
	err    error
}
type scenarioCreatedMsg struct{ scenario *scenario.Scenario }
type scenarioErrorMsg struct{ error }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resizePreview()

	case tea.MouseMsg:
		if a.view == viewResult {
			var cmd tea.Cmd
			a.state.preview, cmd = a.state.preview.Update(msg)
			return a, cmd
		}

	case spinner.TickMsg:
		if a.state.busy() || a.state.generatingScenario {
			var cmd tea.Cmd
			a.state.spinner, cmd = a.state.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case setupCompleteMsg:
		if msg.config != nil {
			a.state.config = msg.config
		}
		a.state.needsSetup = false
		a.view = viewWelcome
		return a, a.testProvider()

	case setupErrorMsg:
		a.state.processingError = msg.error
		a.view = viewError
		return a, nil

	case providerReadyMsg:
		a.state.providerReady = true
		a.state.providerError = nil
		a.state.provider = msg.provider
		a.buildPipeline()
		a.state.input.Focus()
		return a, textinput.Blink

	case providerErrorMsg:
		a.logger.Warn("provider unavailable", zap.Error(msg.error))
		a.state.providerReady = false
		a.state.providerError = msg.error
		a.state.provider = nil
		a.buildPipeline()
		a.state.input.Focus()
		return a, textinput.Blink

	case progressMsg:
		p := pipeline.Progress(msg)
		a.state.progress = &p
		return a, nil

	case draftChunkMsg:
		if a.state.busy() {
			a.state.draft += string(msg)
		}
		return a, nil

	case pipelineDoneMsg:
		return a, a.finishProcessing(msg)

	case scenarioCreatedMsg:
		a.state.generatingScenario = false
		a.state.newScenarioError = nil
		a.state.input.Reset()
		a.state.scenario = msg.scenario.Name
		a.logger.Info("scenario created", zap.String("scenario", msg.scenario.Name))
		a.buildPipeline()
		if a.view != viewError {
			a.view = viewScenarios
		}
		return a, nil

	case scenarioErrorMsg:
		a.state.generatingScenario = false
		a.state.newScenarioError = msg.error
		return a, textinput.Blink
	}

	// Update text inputs based on view
	switch a.view {
	case viewSetup:
		if a.state.setupStep == 1 {
			var cmd tea.Cmd
			a.state.apiKeyInput, cmd = a.state.apiKeyInput.Update(msg)
			cmds = append(cmds, cmd)
		}
	case viewSettings:
		if a.state.settingsMode == "apikey" {
			var cmd tea.Cmd
			a.state.apiKeyInput, cmd = a.state.apiKeyInput.Update(msg)
			cmds = append(cmds, cmd)
		}
	case viewWelcome, viewReference, viewResult, viewNewScenario:
		if !a.state.generatingScenario {
			var cmd tea.Cmd
			a.state.input, cmd = a.state.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

// handleKey reports whether the key was consumed before the text inputs see it
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		if a.state.cancel != nil {
			a.state.cancel()
		}
		a.quitting = true
		return tea.Quit, true
	}
	if key.Matches(msg, keys.Quit) {
		return a.back(), true
	}

	// View-specific handling
	switch a.view {
	case viewSetup:
		return a.handleSetupKey(msg), true
	case viewSettings:
		return a.handleSettingsKey(msg)
	case viewProcessing, viewHelp:
		return nil, true
	case viewDeck:
		return a.handleDeckKey(msg), true
	case viewScenarios:
		return a.handleScenariosKey(msg), true
	case viewError:
		return a.handleErrorKey(msg), true
	case viewResult:
		switch {
		case key.Matches(msg, keys.Tab):
			a.view = viewDeck
			return nil, true
		case key.Matches(msg, keys.PgUp, keys.PgDown):
			var cmd tea.Cmd
			a.state.preview, cmd = a.state.preview.Update(msg)
			return cmd, true
		}
	}

	switch {
	case key.Matches(msg, keys.New):
		return a.newDeck(), true

	case key.Matches(msg, keys.Enter):
		switch a.view {
		case viewWelcome:
			return a.handleInput(), true
		case viewReference:
			return a.handleReferenceInput(), true
		case viewResult:
			return a.handleFollowUp(), true
		case viewNewScenario:
			if a.state.generatingScenario {
				return nil, true
			}
			return a.handleNewScenario(), true
		}
	}

	return nil, false
}

// back handles Esc: leave the current view, or quit from the top level
func (a *App) back() tea.Cmd {
	switch a.view {
	case viewProcessing:
		if a.state.cancel != nil {
			a.state.cancel()
		}
		return nil

	case viewSetup:
		if a.state.setupStep == 1 {
			// Go back to provider selection
			a.state.setupStep = 0
			a.state.apiKeyInput.Reset()
			return nil
		}
		if !a.state.needsSetup {
			a.view = viewSettings
			return nil
		}

	case viewSettings:
		if a.state.settingsMode != "" {
			a.state.settingsMode = ""
			a.state.settingsSelected = 0
			a.state.apiKeyInput.Reset()
			return nil
		}
		a.view = viewWelcome
		return nil

	case viewDeck:
		a.view = viewResult
		return nil

	case viewNewScenario:
		if a.state.generatingScenario {
			return nil
		}
		a.state.newScenarioError = nil
		a.state.input.Reset()
		a.state.input.Placeholder = defaultPlaceholder
		a.view = viewScenarios
		return nil

	case viewReference:
		a.state.reference = nil
		a.state.input.Placeholder = defaultPlaceholder
		a.view = viewWelcome
		return nil

	case viewHelp, viewScenarios, viewResult:
		a.view = viewWelcome
		a.state.input.Placeholder = defaultPlaceholder
		return nil

	case viewError:
		a.state.processingError = nil
		a.state.docError = nil
		if a.state.result != nil {
			a.view = viewResult
		} else {
			a.view = viewWelcome
		}
		return nil
	}

	a.quitting = true
	return tea.Quit
}

func (a *App) handleInput() tea.Cmd {
	input := strings.TrimSpace(a.state.input.Value())
	if input == "" {
		return nil
	}
	a.state.input.Reset()

	// Handle slash commands
	if strings.HasPrefix(input, "/") {
		return a.handleCommand(input)
	}

	// A dropped file becomes reference material
	if path := expandPath(input); isFile(path) {
		return a.openReference(path)
	}

	return a.startProcessing(pipeline.Request{
		Task:     input,
		Template: a.state.template,
		Scenario: a.state.scenario,
	})
}

func (a *App) handleCommand(input string) tea.Cmd {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch cmd {
	case "/help", "/h":
		a.view = viewHelp
	case "/settings", "/s":
		a.state.settingsMode = ""
		a.view = viewSettings
	case "/scenarios":
		a.state.scenarioSelected = 0
		a.view = viewScenarios
	case "/new-scenario":
		return a.openNewScenario()
	case "/scenario":
		switch strings.ToLower(arg) {
		case "", "off", "none":
			a.state.scenario = ""
		default:
			a.state.scenario = arg
		}
	case "/template", "/t":
		if arg == "" {
			a.state.template = ""
			return nil
		}
		if a.state.pipeline != nil {
			if _, err := a.state.pipeline.Catalog().Get(arg); err != nil {
				a.showError(err)
				return nil
			}
		}
		a.state.template = arg
	case "/open", "/o":
		return a.openMarkdown(expandPath(arg))
	case "/ref":
		return a.openReference(expandPath(arg))
	case "/clear":
		if a.state.pipeline != nil {
			a.state.pipeline.Reset()
		}
		a.state.result = nil
	case "/quit", "/q":
		a.quitting = true
		return tea.Quit
	default:
		a.showError(fmt.Errorf("unknown command: %s", cmd))
	}
	return nil
}

func (a *App) showError(err error) {
	a.state.processingError = err
	a.view = viewError
}

// openMarkdown renders a slide markdown file without drafting
func (a *App) openMarkdown(path string) tea.Cmd {
	if path == "" {
		a.showError(errors.New("usage: /open FILE.md"))
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		a.state.docError = err
		a.view = viewError
		return nil
	}
	return a.startProcessing(pipeline.Request{
		Markdown: string(data),
		Template: a.state.template,
		BaseDir:  filepath.Dir(path),
	})
}

func (a *App) openReference(path string) tea.Cmd {
	doc, err := document.Load(path)
	if err != nil {
		a.state.docError = err
		a.view = viewError
		return nil
	}
	a.logger.Info("reference loaded",
		zap.String("path", path),
		zap.Int("words", doc.Metadata.WordCount),
	)
	a.state.reference = doc
	a.state.docError = nil
	a.state.input.Placeholder = "What should the deck cover?"
	a.view = viewReference
	return textinput.Blink
}

func (a *App) handleReferenceInput() tea.Cmd {
	input := strings.TrimSpace(a.state.input.Value())
	if input == "" || a.state.reference == nil {
		return nil
	}
	a.state.input.Reset()
	return a.startProcessing(pipeline.Request{
		Task:     input,
		Template: a.state.template,
		Scenario: a.state.scenario,
		Source:   a.state.reference.Metadata.SourcePath,
	})
}

// handleFollowUp revises the current deck in the same conversation
func (a *App) handleFollowUp() tea.Cmd {
	input := strings.TrimSpace(a.state.input.Value())
	if input == "" {
		return nil
	}
	a.state.input.Reset()

	if strings.HasPrefix(input, "/") {
		return a.handleCommand(input)
	}

	req := pipeline.Request{Task: input, Template: a.state.template, Scenario: a.state.scenario}
	if res := a.state.result; res != nil {
		req.Template = res.Template
		req.Scenario = res.Scenario
		// Decks opened from a file have no conversation yet
		if last := a.state.lastRequest; last != nil && last.Markdown != "" {
			req.Task = prompts.BuildTaskPrompt("Revise these slides: "+input, res.Markdown)
			req.BaseDir = last.BaseDir
		}
	}
	return a.startProcessing(req)
}

func (a *App) startProcessing(req pipeline.Request) tea.Cmd {
	if a.state.pipeline == nil {
		a.showError(errors.New("still connecting to the model, try again in a moment"))
		return nil
	}

	p := a.state.pipeline
	ctx, cancel := context.WithCancel(context.Background())
	a.state.cancel = cancel
	a.state.lastRequest = &req
	a.state.progress = nil
	a.state.draft = ""
	a.state.processingError = nil
	a.state.processStart = time.Now()
	a.view = viewProcessing

	a.logger.Info("building deck",
		zap.Bool("draft", req.Markdown == ""),
		zap.String("template", req.Template),
		zap.String("scenario", req.Scenario),
	)

	run := func() tea.Msg {
		res, err := p.Process(ctx, req)
		return pipelineDoneMsg{result: res, err: err}
	}
	return tea.Batch(run, a.state.spinner.Tick)
}

func (a *App) finishProcessing(msg pipelineDoneMsg) tea.Cmd {
	if a.state.cancel != nil {
		a.state.cancel()
		a.state.cancel = nil
	}

	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			a.logger.Info("build cancelled")
			if a.state.result != nil {
				a.view = viewResult
			} else {
				a.view = viewWelcome
			}
			return textinput.Blink
		}
		a.logger.Error("build failed", zap.Error(msg.err))
		a.state.processingError = msg.err
		a.state.failedReply = ""
		if msg.result != nil {
			a.state.failedReply = msg.result.Markdown
		}
		a.view = viewError
		return nil
	}

	a.state.result = msg.result
	a.state.deckSelected = 0
	a.state.deckScroll = 0
	a.refreshPreview()
	a.view = viewResult
	a.state.input.Placeholder = "Follow-up or revision..."
	a.state.input.Focus()

	a.logger.Info("deck ready",
		zap.String("output", msg.result.OutputPath),
		zap.Int("slides", msg.result.Deck.Len()),
	)
	return textinput.Blink
}

func (a *App) newDeck() tea.Cmd {
	if a.state.pipeline != nil {
		a.state.pipeline.Reset()
	}
	a.state.result = nil
	a.state.reference = nil
	a.state.lastRequest = nil
	a.state.processingError = nil
	a.state.input.Reset()
	a.state.input.Placeholder = defaultPlaceholder
	a.state.input.Focus()
	a.view = viewWelcome
	return textinput.Blink
}

func (a *App) previewWidth() int {
	w := min(80, a.width-4)
	if w < 20 {
		w = 70
	}
	return w
}

func (a *App) resizePreview() {
	a.state.preview.Width = a.previewWidth()
	a.state.preview.Height = max(5, a.height-14)
	a.refreshPreview()
}

func (a *App) refreshPreview() {
	if a.state.result == nil {
		return
	}
	a.state.preview.SetContent(renderMarkdown(a.state.result.Markdown, a.previewWidth()-4))
	a.state.preview.GotoTop()
}

// renderMarkdown styles slide markdown for the terminal, falling back to the raw text
func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func (a *App) handleSetupKey(msg tea.KeyMsg) tea.Cmd {
	switch a.state.setupStep {
	case 0: // Provider selection
		switch {
		case key.Matches(msg, keys.Up):
			if a.state.selectedProvider > 0 {
				a.state.selectedProvider--
			}
		case key.Matches(msg, keys.Down):
			if a.state.selectedProvider < len(config.Providers)-1 {
				a.state.selectedProvider++
			}
		case key.Matches(msg, keys.Enter):
			provider := config.Providers[a.state.selectedProvider]
			a.state.config.Provider = provider.ID
			a.state.config.Model = provider.DefaultModel

			if provider.NeedsAPIKey {
				a.state.setupStep = 1
				a.state.apiKeyInput.Focus()
				return textinput.Blink
			}
			return a.finishSetup()
		}

	case 1: // API key entry
		if key.Matches(msg, keys.Enter) {
			a.state.config.APIKey = strings.TrimSpace(a.state.apiKeyInput.Value())
			return a.finishSetup()
		}
		var cmd tea.Cmd
		a.state.apiKeyInput, cmd = a.state.apiKeyInput.Update(msg)
		return cmd
	}

	return nil
}

func (a *App) finishSetup() tea.Cmd {
	a.state.setupStep = 0
	a.state.apiKeyInput.Reset()
	cfg := a.state.config
	return func() tea.Msg {
		if err := cfg.Save(); err != nil {
			return setupErrorMsg{err}
		}
		// Reload so an empty key picks up the provider's environment variable
		loaded, err := config.Load()
		if err != nil {
			return setupErrorMsg{err}
		}
		return setupCompleteMsg{loaded}
	}
}

func (a *App) handleDeckKey(msg tea.KeyMsg) tea.Cmd {
	n := 0
	if res := a.state.result; res != nil && res.Presentation != nil {
		n = len(res.Presentation.Slides)
	}

	switch {
	case key.Matches(msg, keys.Up):
		if a.state.deckSelected > 0 {
			a.state.deckSelected--
		}
	case key.Matches(msg, keys.Down):
		if a.state.deckSelected < n-1 {
			a.state.deckSelected++
		}
	case key.Matches(msg, keys.Tab):
		a.view = viewResult
	}
	return nil
}

func (a *App) scenarioList() []*scenario.Metadata {
	if a.state.pipeline == nil || a.state.pipeline.Scenarios() == nil {
		return nil
	}
	return a.state.pipeline.Scenarios().All()
}

func (a *App) handleScenariosKey(msg tea.KeyMsg) tea.Cmd {
	list := a.scenarioList()

	switch {
	case key.Matches(msg, keys.Up):
		if a.state.scenarioSelected > 0 {
			a.state.scenarioSelected--
		}
	case key.Matches(msg, keys.Down):
		if a.state.scenarioSelected < len(list)-1 {
			a.state.scenarioSelected++
		}
	case key.Matches(msg, keys.Enter):
		if len(list) > 0 {
			a.state.scenario = list[a.state.scenarioSelected].Name
			a.view = viewWelcome
			return textinput.Blink
		}
	default:
		switch msg.String() {
		case "a":
			a.state.scenario = pipeline.AutoScenario
			a.view = viewWelcome
			return textinput.Blink
		case "x":
			a.state.scenario = ""
		case "n":
			return a.openNewScenario()
		}
	}
	return nil
}

func (a *App) openNewScenario() tea.Cmd {
	if a.state.provider == nil {
		a.showError(errors.New("generating a scenario needs a connected model"))
		return nil
	}
	a.state.newScenarioError = nil
	a.state.input.Reset()
	a.state.input.Placeholder = "e.g. quarterly business review for executives"
	a.state.input.Focus()
	a.view = viewNewScenario
	return textinput.Blink
}

func (a *App) handleNewScenario() tea.Cmd {
	desc := strings.TrimSpace(a.state.input.Value())
	if desc == "" {
		return nil
	}

	dir, err := pipeline.ScenarioDir(a.state.config)
	if err != nil {
		a.state.newScenarioError = err
		return nil
	}

	gen := scenario.NewGenerator(a.state.provider, a.state.config.Model, dir)
	a.state.generatingScenario = true
	a.state.newScenarioError = nil

	run := func() tea.Msg {
		s, err := gen.Generate(context.Background(), desc)
		if err != nil {
			return scenarioErrorMsg{err}
		}
		return scenarioCreatedMsg{s}
	}
	return tea.Batch(run, a.state.spinner.Tick)
}

func (a *App) handleErrorKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "r":
		if req := a.state.lastRequest; req != nil && a.state.processingError != nil {
			return a.startProcessing(*req)
		}
	case "s":
		a.state.processingError = nil
		a.state.settingsMode = ""
		a.view = viewSettings
	case "n":
		return a.newDeck()
	}
	return nil
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	switch a.view {
	case viewWelcome:
		return a.renderWelcome()
	case viewSetup:
		return a.renderSetup()
	case viewReference:
		return a.renderReference()
	case viewProcessing:
		return a.renderProcessing()
	case viewResult:
		return a.renderResult()
	case viewDeck:
		return a.renderDeck()
	case viewScenarios:
		return a.renderScenarios()
	case viewNewScenario:
		return a.renderNewScenario()
	case viewSettings:
		return a.renderSettings()
	case viewHelp:
		return a.renderHelp()
	case viewError:
		return a.renderError()
	default:
		return a.renderWelcome()
	}
}

// expandPath resolves ~/ and strips quotes terminals add to dropped files
func expandPath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), `"'`)
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
