package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shengjie8329/ChatPPT/internal/pipeline"
)

var (
	generateFlags    outputFlags
	generateScenario string
	generateSource   string
	generatePrint    bool
)

// generateCmd drafts a deck with the model
var generateCmd = &cobra.Command{
	Use:   "generate TASK...",
	Short: "Draft a presentation with the configured model",
	Long: `Asks the model to write slide markdown for a task, then renders it.

A scenario gives the model a brief for a kind of deck; "auto" lets the model
pick one. A reference document (.md or .txt) is handed over as source
material.

Examples:
  chatppt generate "weekly report for the data team" --scenario weekly-report
  chatppt generate "summarise these notes" --source notes.md --print`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateFlags.register(generateCmd)
	generateCmd.Flags().StringVarP(&generateScenario, "scenario", "s", "", "Scenario name, or \"auto\"")
	generateCmd.Flags().StringVar(&generateSource, "source", "", "Reference document")
	generateCmd.Flags().BoolVar(&generatePrint, "print", false, "Stream the drafted markdown while the model writes it")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(&generateFlags, true)
	if err != nil {
		return err
	}

	p.SetProgressCallback(func(pr pipeline.Progress) {
		logger.Info(pr.Message,
			zap.String("stage", pr.Stage.String()),
			zap.Int("step", pr.StageIndex+1),
			zap.Int("of", pr.TotalStages),
		)
	})

	out := cmd.OutOrStdout()
	streamed := false
	if generatePrint {
		p.SetDraftCallback(func(chunk string) {
			streamed = true
			fmt.Fprint(out, chunk)
		})
	}

	ctx, cancel := commandContext(timeout)
	defer cancel()

	res, err := p.Process(ctx, pipeline.Request{
		Task:     strings.Join(args, " "),
		Template: generateFlags.template,
		Scenario: generateScenario,
		Source:   generateSource,
	})

	if streamed {
		fmt.Fprintln(out)
	}
	if err != nil {
		// Show what the model wrote when it could not be used
		if errors.Is(err, pipeline.ErrNoSlides) && res != nil && !streamed {
			fmt.Fprintln(out, res.Markdown)
		}
		return err
	}

	if res.Truncated {
		logger.Warn("reference material was truncated to fit the prompt", zap.String("source", generateSource))
	}
	if generatePrint && !streamed {
		fmt.Fprintln(out, res.Markdown)
	}

	summary := fmt.Sprintf("%s (%d slides, %s", res.OutputPath, res.Deck.Len(), res.Template)
	if res.Scenario != "" {
		summary += ", " + res.Scenario
	}
	fmt.Fprintln(out, summary+")")
	return nil
}
