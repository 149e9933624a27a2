package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BuildResult is the outcome for one markdown file
type BuildResult struct {
	Source     string
	OutputPath string
	Slides     int
}

// BuildFile renders a markdown file without drafting
func (p *Pipeline) BuildFile(ctx context.Context, path, template string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, Request{
		Markdown: string(data),
		Template: template,
		BaseDir:  filepath.Dir(path),
	}, p.onProgress)
}

// BuildAll renders markdown files with at most limit running at once.
// It stops at the first failure; results keep the input order.
func (p *Pipeline) BuildAll(ctx context.Context, paths []string, template string, limit int) ([]BuildResult, error) {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	results := make([]BuildResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			res, err := p.run(ctx, Request{
				Markdown: string(data),
				Template: template,
				BaseDir:  filepath.Dir(path),
			}, nil)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			results[i] = BuildResult{
				Source:     path,
				OutputPath: res.OutputPath,
				Slides:     res.Deck.Len(),
			}
			p.logger.Debug("built", zap.String("source", path), zap.String("output", res.OutputPath))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
