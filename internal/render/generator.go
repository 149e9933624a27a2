package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/shengjie8329/ChatPPT/internal/layout"
	"github.com/shengjie8329/ChatPPT/internal/slides"
)

// Generator resolves, renders and writes decks to an output directory
type Generator struct {
	renderer Renderer
	outDir   string
	strict   bool
	logger   *zap.Logger
}

// GeneratorOptions configures a Generator
type GeneratorOptions struct {
	OutDir string
	// Fail on layout labels the template does not know
	Strict bool
	Logger *zap.Logger
}

func NewGenerator(renderer Renderer, opts GeneratorOptions) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	outDir := opts.OutDir
	if outDir == "" {
		outDir = "outputs"
	}
	return &Generator{
		renderer: renderer,
		outDir:   outDir,
		strict:   opts.Strict,
		logger:   logger,
	}
}

// OutDir returns the directory decks are written to
func (g *Generator) OutDir() string {
	return g.outDir
}

// Resolve builds the presentation for a deck without writing it
func (g *Generator) Resolve(deck *slides.Deck, tpl *layout.Template) (*Presentation, error) {
	resolver := layout.NewResolver(tpl, layout.WithStrict(g.strict), layout.WithLogger(g.logger))
	return Build(deck, tpl, resolver)
}

// Generate renders deck with tpl and writes <outdir>/<title><ext>. Relative
// image paths resolve against baseDir. It returns the written path.
func (g *Generator) Generate(deck *slides.Deck, tpl *layout.Template, baseDir string) (string, error) {
	p, err := g.Resolve(deck, tpl)
	if err != nil {
		return "", err
	}
	p.BaseDir = baseDir
	return g.Write(p)
}

// Write renders an already resolved presentation to the output directory
func (g *Generator) Write(p *Presentation) (string, error) {
	var buf bytes.Buffer
	if err := g.renderer.Render(&buf, p); err != nil {
		return "", fmt.Errorf("render %s: %w", p.Title, err)
	}

	if err := os.MkdirAll(g.outDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(g.outDir, FileName(p.Title)+g.renderer.Extension())
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}

	g.logger.Info("presentation written",
		zap.String("path", path),
		zap.String("template", p.Template),
		zap.Int("slides", len(p.Slides)),
	)
	return path, nil
}

// FileName turns a presentation title into a safe file name, keeping
// letters of any script.
func FileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r):
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, title)

	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" {
		return "presentation"
	}
	return name
}

// writeFileAtomic writes to a temp file in the same directory, syncs it and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
