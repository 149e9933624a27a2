package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shengjie8329/ChatPPT/internal/llm"
	"github.com/shengjie8329/ChatPPT/internal/pipeline"
	"github.com/shengjie8329/ChatPPT/internal/scenario"
)

// scenariosCmd manages scenarios
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Manage presentation scenarios",
	Long: `A scenario is a folder holding SCENARIO.md: YAML frontmatter with a name,
description and preferred template, followed by instructions for the model.`,
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed scenarios",
	Args:  cobra.NoArgs,
	RunE:  runScenariosList,
}

var scenariosSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the built-in scenarios",
	Args:  cobra.NoArgs,
	RunE:  runScenariosSeed,
}

var scenariosShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenariosShow,
}

var scenariosNewCmd = &cobra.Command{
	Use:   "new DESCRIPTION...",
	Short: "Generate a scenario with the model",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenariosNew,
}

func init() {
	scenariosCmd.AddCommand(scenariosListCmd)
	scenariosCmd.AddCommand(scenariosSeedCmd)
	scenariosCmd.AddCommand(scenariosShowCmd)
	scenariosCmd.AddCommand(scenariosNewCmd)
}

func scenarioIndex() (*scenario.Index, error) {
	dir, err := pipeline.ScenarioDir(cfg)
	if err != nil {
		return nil, err
	}
	return scenario.NewIndex(dir, logger)
}

func runScenariosList(cmd *cobra.Command, args []string) error {
	idx, err := scenarioIndex()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if idx.Count() == 0 {
		fmt.Fprintf(out, "No scenarios in %s. Run `chatppt scenarios seed` to install the built-in ones.\n", idx.Dir())
		return nil
	}
	for _, meta := range idx.All() {
		fmt.Fprintf(out, "%-20s %-16s %s\n", meta.Name, meta.Template, meta.Description)
	}
	return nil
}

func runScenariosSeed(cmd *cobra.Command, args []string) error {
	dir, err := pipeline.ScenarioDir(cfg)
	if err != nil {
		return err
	}

	written, err := scenario.Seed(dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(written) == 0 {
		fmt.Fprintf(out, "Built-in scenarios already present in %s\n", dir)
		return nil
	}
	fmt.Fprintf(out, "Installed %s into %s\n", strings.Join(written, ", "), dir)
	return nil
}

func runScenariosShow(cmd *cobra.Command, args []string) error {
	idx, err := scenarioIndex()
	if err != nil {
		return err
	}
	s, err := idx.Load(args[0])
	if err != nil {
		return err
	}
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runScenariosNew(cmd *cobra.Command, args []string) error {
	provider, err := llm.NewProvider(cfg, logger)
	if err != nil {
		return err
	}
	dir, err := pipeline.ScenarioDir(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeout)
	defer cancel()

	gen := scenario.NewGenerator(provider, cfg.Model, dir)
	s, err := gen.Generate(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	logger.Info("scenario created", zap.String("scenario", s.Name))
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", filepath.Join(dir, s.Name, scenario.FileName))
	return nil
}
