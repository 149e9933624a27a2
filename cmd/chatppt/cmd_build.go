package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/shengjie8329/ChatPPT/internal/pipeline"
	"github.com/shengjie8329/ChatPPT/internal/slides"
	"github.com/shengjie8329/ChatPPT/internal/watch"
)

var (
	buildFlags outputFlags
	buildJobs  int

	watchFlags outputFlags

	parseTemplate string
)

// buildCmd renders markdown files
var buildCmd = &cobra.Command{
	Use:   "build FILE...",
	Short: "Render slide markdown files into presentations",
	Long: `Parses each markdown file, matches its slides to the template's layouts
and writes one presentation per file. Files are built in parallel; the
first failure stops the run.

Example:
  chatppt build weekly.md launch.md --template LGBTTemplate --format html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

// parseCmd prints the parsed slide records
var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Print the slides parsed from a markdown file as YAML",
	Long: `Parses a markdown file and prints the deck title and slide records
without resolving layouts or writing anything. Use "-" to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

// watchCmd rebuilds on change
var watchCmd = &cobra.Command{
	Use:   "watch FILE...",
	Short: "Rebuild presentations whenever their markdown changes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func init() {
	buildFlags.register(buildCmd)
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 0, "Files to build at once (default: number of CPUs)")

	watchFlags.register(watchCmd)

	parseCmd.Flags().StringVarP(&parseTemplate, "template", "t", "", "Template whose layouts label lookups use")
}

func runBuild(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(&buildFlags, false)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeout)
	defer cancel()

	results, err := p.BuildAll(ctx, args, buildFlags.template, buildJobs)
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.OutputPath != "" {
			fmt.Fprintf(out, "%s -> %s (%d slides)\n", r.Source, r.OutputPath, r.Slides)
		}
	}
	return err
}

func runParse(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return err
	}

	catalog, err := pipeline.LoadCatalog(cfg)
	if err != nil {
		return err
	}
	tpl, err := catalog.Get(parseTemplate)
	if err != nil {
		return err
	}

	deck := slides.ParseDeck(string(data), tpl.Layouts)
	logger.Debug("parsed", zap.String("title", deck.Title), zap.Int("slides", deck.Len()))

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(deck); err != nil {
		return err
	}
	return enc.Close()
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(&watchFlags, false)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	build := func(ctx context.Context, path string) {
		res, err := p.BuildFile(ctx, path, watchFlags.template)
		if err != nil {
			logger.Error("build failed", zap.String("source", path), zap.Error(err))
			return
		}
		fmt.Fprintf(out, "%s -> %s (%d slides)\n", path, res.OutputPath, res.Deck.Len())
	}

	// Runs until interrupted
	ctx, cancel := commandContext(0)
	defer cancel()

	for _, path := range args {
		build(ctx, path)
	}

	w, err := watch.New(args, build, watch.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	logger.Info("watching for changes", zap.Strings("files", w.Files()))
	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	return nil
}
