package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/shengjie8329/ChatPPT/internal/config"
	"github.com/shengjie8329/ChatPPT/internal/document"
	"github.com/shengjie8329/ChatPPT/internal/llm"
	"github.com/shengjie8329/ChatPPT/internal/pipeline"
)

type state struct {
	// Config
	config     *config.Config
	needsSetup bool

	// Setup wizard state
	setupStep        int
	selectedProvider int
	apiKeyInput      textinput.Model

	// Settings state
	settingsMode     string
	settingsSelected int

	// Deck choices for the next build
	template string
	scenario string

	// Reference document
	reference *document.Document
	docError  error

	// Processing
	pipeline        *pipeline.Pipeline
	progress        *pipeline.Progress
	processStart    time.Time
	cancel          context.CancelFunc
	lastRequest     *pipeline.Request
	processingError error
	// Markdown streamed so far while drafting
	draft string
	// Model reply of a failed build, when there was one
	failedReply string
	spinner     spinner.Model

	// Result
	result  *pipeline.Result
	preview viewport.Model

	// Deck browser
	deckSelected int
	deckScroll   int

	// Scenarios
	scenarioSelected   int
	generatingScenario bool
	newScenarioError   error

	// Input
	input textinput.Model

	// Provider
	provider      llm.Provider
	providerReady bool
	providerError error
}

func newState() *state {
	input := textinput.New()
	input.Placeholder = "Describe a deck, open a file, or /help..."
	input.CharLimit = 2000
	input.Width = 60

	apiKey := textinput.New()
	apiKey.Placeholder = "Paste your API key here..."
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.CharLimit = 200
	apiKey.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleSpinner

	return &state{
		input:       input,
		apiKeyInput: apiKey,
		spinner:     sp,
		preview:     viewport.New(70, 20),
	}
}

// busy reports whether a build is running
func (s *state) busy() bool {
	return s.cancel != nil
}
