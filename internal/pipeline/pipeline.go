package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/shengjie8329/ChatPPT/internal/document"
	"github.com/shengjie8329/ChatPPT/internal/layout"
	"github.com/shengjie8329/ChatPPT/internal/prompts"
	"github.com/shengjie8329/ChatPPT/internal/render"
	"github.com/shengjie8329/ChatPPT/internal/scenario"
	"github.com/shengjie8329/ChatPPT/internal/slides"
)

var (
	// ErrNoSlides is returned when the markdown holds no slide headings
	ErrNoSlides = errors.New("no slides found")
	// ErrNoDrafter is returned when a task needs drafting but no model is configured
	ErrNoDrafter = errors.New("no model configured to draft slides")
)

// AutoScenario asks the matcher to pick a scenario for the task
const AutoScenario = "auto"

const (
	referenceChunkSize = 1500
	referenceMaxRunes  = 12000
)

// Stage represents a pipeline stage
type Stage int

const (
	StageDrafting Stage = iota
	StageParsing
	StageResolving
	StageRendering
	StageDone
)

const totalStages = 4

func (s Stage) String() string {
	switch s {
	case StageDrafting:
		return "Drafting"
	case StageParsing:
		return "Parsing"
	case StageResolving:
		return "Resolving"
	case StageRendering:
		return "Rendering"
	case StageDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Progress represents pipeline progress
type Progress struct {
	Stage       Stage
	StageIndex  int
	TotalStages int
	Message     string
}

// Drafter turns a task into slide markdown, keeping conversation state
type Drafter interface {
	ChatWithHistory(ctx context.Context, input string) (string, error)
}

// StreamingDrafter is a Drafter that can hand over its reply as it arrives
type StreamingDrafter interface {
	Drafter
	StreamWithHistory(ctx context.Context, input string, onChunk func(string)) (string, error)
}

// DrafterFactory creates a drafter for a system prompt
type DrafterFactory func(systemPrompt string) Drafter

// Request describes one deck to build
type Request struct {
	// Task for the model; ignored when Markdown is set
	Task string
	// Slide markdown to render directly
	Markdown string
	// Template name; empty uses the scenario's or the catalog default
	Template string
	// Scenario name, AutoScenario, or empty for none
	Scenario string
	// Optional reference document for the model
	Source string
	// Directory relative image paths resolve against
	BaseDir string
}

// Result contains pipeline output
type Result struct {
	Markdown     string
	Deck         *slides.Deck
	Presentation *render.Presentation
	OutputPath   string
	Template     string
	Scenario     string
	// Reference material was cut to fit the prompt
	Truncated bool
}

// Options configures a Pipeline
type Options struct {
	Catalog   *layout.Catalog
	Generator *render.Generator
	// Creates model-backed drafters; nil means markdown-only builds
	NewDrafter DrafterFactory
	Scenarios  *scenario.Index
	Matcher    *scenario.Matcher
	Logger     *zap.Logger
}

// Pipeline builds decks from tasks or markdown
type Pipeline struct {
	catalog    *layout.Catalog
	generator  *render.Generator
	newDrafter DrafterFactory
	scenarios  *scenario.Index
	matcher    *scenario.Matcher
	logger     *zap.Logger
	onProgress func(Progress)
	onDraft    func(chunk string)

	mu       sync.Mutex
	drafters map[string]Drafter
}

// NewPipeline creates a new pipeline
func NewPipeline(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = layout.DefaultCatalog()
	}
	return &Pipeline{
		catalog:    catalog,
		generator:  opts.Generator,
		newDrafter: opts.NewDrafter,
		scenarios:  opts.Scenarios,
		matcher:    opts.Matcher,
		logger:     logger,
		drafters:   make(map[string]Drafter),
	}
}

// SetProgressCallback sets the progress callback
func (p *Pipeline) SetProgressCallback(fn func(Progress)) {
	p.onProgress = fn
}

// SetDraftCallback streams drafted markdown to fn as the model writes it.
// Drafters that cannot stream still work; fn is then not called.
func (p *Pipeline) SetDraftCallback(fn func(chunk string)) {
	p.onDraft = fn
}

// Catalog returns the template catalog in use
func (p *Pipeline) Catalog() *layout.Catalog {
	return p.catalog
}

// Reset forgets every drafting conversation
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drafters = make(map[string]Drafter)
}

func (p *Pipeline) progress(report func(Progress), stage Stage, msg string) {
	if report != nil {
		report(Progress{
			Stage:       stage,
			StageIndex:  int(stage),
			TotalStages: totalStages,
			Message:     msg,
		})
	}
}

// Process runs the pipeline
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	return p.run(ctx, req, p.onProgress)
}

func (p *Pipeline) run(ctx context.Context, req Request, report func(Progress)) (*Result, error) {
	res := &Result{}

	sc, err := p.scenario(ctx, req)
	if err != nil {
		return nil, err
	}

	tplName := req.Template
	if tplName == "" && sc != nil {
		tplName = sc.Template
	}
	tpl, err := p.catalog.Get(tplName)
	if err != nil {
		return nil, err
	}
	res.Template = tpl.Name

	// Stage 1: Drafting
	markdown := req.Markdown
	if strings.TrimSpace(markdown) == "" {
		p.progress(report, StageDrafting, "Drafting slides...")
		if sc != nil {
			res.Scenario = sc.Name
		}
		markdown, res.Truncated, err = p.draft(ctx, req, sc, tpl)
		if err != nil {
			return nil, err
		}
	}
	res.Markdown = markdown

	// Stage 2: Parsing
	p.progress(report, StageParsing, "Parsing slide markdown...")
	deck := slides.ParseDeck(markdown, tpl.Layouts)
	if deck.Len() == 0 {
		return res, ErrNoSlides
	}
	res.Deck = deck
	p.logger.Debug("parsed deck", zap.String("title", deck.Title), zap.Int("slides", deck.Len()))

	// Stage 3: Resolving
	p.progress(report, StageResolving, fmt.Sprintf("Matching %d slides to %s layouts...", deck.Len(), tpl.Name))
	if p.generator == nil {
		return res, fmt.Errorf("no output configured")
	}
	pres, err := p.generator.Resolve(deck, tpl)
	if err != nil {
		return res, err
	}
	pres.BaseDir = req.BaseDir
	res.Presentation = pres

	// Stage 4: Rendering
	p.progress(report, StageRendering, "Writing presentation...")
	path, err := p.generator.Write(pres)
	if err != nil {
		return res, err
	}
	res.OutputPath = path

	p.progress(report, StageDone, "Presentation ready")
	return res, nil
}

func (p *Pipeline) scenario(ctx context.Context, req Request) (*scenario.Scenario, error) {
	switch req.Scenario {
	case "":
		return nil, nil
	case AutoScenario:
		if p.matcher == nil || req.Task == "" {
			return nil, nil
		}
		match, err := p.matcher.Match(ctx, req.Task)
		if err != nil {
			p.logger.Warn("scenario matching failed", zap.Error(err))
			return nil, nil
		}
		if match == nil {
			return nil, nil
		}
		p.logger.Info("matched scenario",
			zap.String("scenario", match.Scenario.Name),
			zap.Float64("confidence", match.Confidence),
		)
		return scenario.LoadFull(match.Scenario)
	default:
		if p.scenarios == nil {
			return nil, &scenario.NotFoundError{Name: req.Scenario}
		}
		return p.scenarios.Load(req.Scenario)
	}
}

func (p *Pipeline) draft(ctx context.Context, req Request, sc *scenario.Scenario, tpl *layout.Template) (string, bool, error) {
	if strings.TrimSpace(req.Task) == "" {
		return "", false, fmt.Errorf("nothing to build: no task and no markdown")
	}

	drafter, err := p.drafter(sc)
	if err != nil {
		return "", false, err
	}

	var reference string
	var truncated bool
	if req.Source != "" {
		doc, err := document.Load(req.Source)
		if err != nil {
			return "", false, fmt.Errorf("load reference: %w", err)
		}
		chunks := ChunkDocument(doc.Content, referenceChunkSize)
		reference, truncated = SelectReference(chunks, referenceMaxRunes)
		if truncated {
			p.logger.Warn("reference material truncated",
				zap.String("source", req.Source),
				zap.Int("chunks", len(chunks)),
				zap.Int("est_tokens", EstimateTokens(doc.Content)),
			)
		}
	}

	task := prompts.BuildTaskPrompt(req.Task, reference)
	if hint := layoutHint(tpl); hint != "" {
		task += "\n\n" + hint
	}

	var markdown string
	if sd, ok := drafter.(StreamingDrafter); ok && p.onDraft != nil {
		markdown, err = sd.StreamWithHistory(ctx, task, p.onDraft)
	} else {
		markdown, err = drafter.ChatWithHistory(ctx, task)
	}
	if err != nil {
		return "", truncated, fmt.Errorf("drafting: %w", err)
	}
	return markdown, truncated, nil
}

// drafter returns the conversation for a scenario, creating it on first use
func (p *Pipeline) drafter(sc *scenario.Scenario) (Drafter, error) {
	if p.newDrafter == nil {
		return nil, ErrNoDrafter
	}

	key, name, body := "", "", ""
	if sc != nil {
		key, name, body = sc.Name, sc.Name, sc.Body
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.drafters[key]
	if !ok {
		d = p.newDrafter(prompts.BuildFormatterPrompt(name, body))
		p.drafters[key] = d
	}
	return d, nil
}

// layoutHint lists the template's layouts when it lacks the standard ones
func layoutHint(tpl *layout.Template) string {
	for _, name := range []string{layout.TitleOnly, layout.TitleAndContent, layout.TitleAndPicture, layout.TitleContentAndPicture} {
		if _, ok := tpl.Layouts[name]; !ok {
			return prompts.BuildLayoutHint(tpl.Layouts.Names())
		}
	}
	return ""
}
