package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shengjie8329/ChatPPT/internal/config"
	"github.com/shengjie8329/ChatPPT/internal/llm"
	"github.com/shengjie8329/ChatPPT/internal/logging"
	"github.com/shengjie8329/ChatPPT/internal/pipeline"
	"github.com/shengjie8329/ChatPPT/internal/tui"
)

var version = "dev"

var (
	// Global flags
	verbose   bool
	configDir string
	timeout   time.Duration

	// Loaded before every command
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chatppt",
	Short: "ChatPPT - slide decks from markdown and a language model",
	Long: `ChatPPT turns slide markdown into presentations.

Each "## Title [Layout]" heading starts a slide; "- " lines become bullets and
"![alt](path)" lines add a picture. The bracketed label picks a layout from the
selected template, and a language model can draft the markdown from a task.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runInteractive,
}

// loadConfig runs before every command: it loads config and sets up logging
func loadConfig(cmd *cobra.Command, args []string) error {
	if configDir != "" {
		if err := os.Setenv(config.HomeEnv, configDir); err != nil {
			return err
		}
	}

	var err error
	cfg, err = config.LoadOrDefault()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := config.ResolvePath(cfg.Log.File)
	if err != nil {
		return err
	}
	// The interactive UI owns the terminal, so it always logs to a file
	if cmd == rootCmd && logFile == "" {
		if logFile, err = config.LogPath(); err != nil {
			return err
		}
	}

	logger, err = logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Verbose: verbose,
		File:    logFile,
		Console: true,
	})
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chatppt %s\n", version)
	},
}

func init() {
	// Assigned here because loadConfig refers to rootCmd
	rootCmd.PersistentPreRunE = loadConfig

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default: $"+config.HomeEnv+" or ~/.config/chatppt)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(layoutsCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runInteractive(cmd *cobra.Command, args []string) error {
	app := tui.NewApp(logger)
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	app.SetProgram(p)

	_, err := p.Run()
	return err
}

// commandContext cancels on SIGINT/SIGTERM and after limit, when positive
func commandContext(limit time.Duration) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if limit > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), limit)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("interrupted, cancelling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// outputFlags are shared by the commands that write decks
type outputFlags struct {
	template string
	format   string
	out      string
	strict   bool
	embed    bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "Template name (default: catalog default)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: html, yaml or markdown (default: config)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Output directory (default: config)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail on layout labels the template does not know")
	cmd.Flags().BoolVar(&f.embed, "embed", false, "Inline images into HTML output")
}

func (f *outputFlags) apply(c *config.Config) {
	if f.format != "" {
		c.Output.Format = f.format
	}
	if f.out != "" {
		c.Output.Dir = f.out
	}
	if f.strict {
		c.Templates.Strict = true
	}
	if f.embed {
		c.Output.EmbedImages = true
	}
}

// newPipeline builds a pipeline from config and flags. withModel connects
// the configured provider so tasks can be drafted.
func newPipeline(f *outputFlags, withModel bool) (*pipeline.Pipeline, error) {
	c := *cfg
	f.apply(&c)

	var provider llm.Provider
	if withModel {
		p, err := llm.NewProvider(&c, logger)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	return pipeline.NewFromConfig(&c, provider, logger)
}
