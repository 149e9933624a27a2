package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shengjie8329/ChatPPT/internal/layout"
	"github.com/shengjie8329/ChatPPT/internal/pipeline"
)

// layoutsCmd lists a template's layouts
var layoutsCmd = &cobra.Command{
	Use:   "layouts TEMPLATE|FILE.pptx",
	Short: "List the slide layouts of a template",
	Long: `Lists layout names and indices. Given a .pptx file, reads the layouts
and their placeholders from the file; otherwise looks the template up in
the catalog. The names are what slide headings put in square brackets.`,
	Args: cobra.ExactArgs(1),
	RunE: runLayouts,
}

// templatesCmd lists the catalog
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the templates in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runTemplates,
}

func runLayouts(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if strings.EqualFold(filepath.Ext(args[0]), ".pptx") {
		infos, err := layout.ReadPPTX(args[0])
		if err != nil {
			return err
		}
		for _, l := range infos {
			fmt.Fprintf(out, "%2d  %s\n", l.Index, l.Name)
			for _, ph := range l.Placeholders {
				kind := ph.Type
				if kind == "" {
					kind = "body"
				}
				fmt.Fprintf(out, "      %-8s idx=%-3d %s\n", kind, ph.Idx, ph.Name)
			}
		}
		return nil
	}

	catalog, err := pipeline.LoadCatalog(cfg)
	if err != nil {
		return err
	}
	tpl, err := catalog.Get(args[0])
	if err != nil {
		return err
	}
	for _, name := range tpl.Layouts.Names() {
		mark := ""
		if tpl.Layouts[name] == tpl.DefaultLayout {
			mark = "  (fallback)"
		}
		fmt.Fprintf(out, "%2d  %s%s\n", tpl.Layouts[name], name, mark)
	}
	return nil
}

func runTemplates(cmd *cobra.Command, args []string) error {
	catalog, err := pipeline.LoadCatalog(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, t := range catalog.Templates {
		mark := " "
		if t.Name == catalog.Default {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-20s %d layouts", mark, t.Name, len(t.Layouts))
		if t.Path != "" {
			fmt.Fprintf(out, "  %s", t.Path)
		}
		fmt.Fprintln(out)
	}
	return nil
}
