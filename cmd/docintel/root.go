package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docintel/internal/app"
	"github.com/dgallion1/docintel/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "docintel",
		Short: "Document outline extraction and persona-driven section ranking",
		Long: `docintel reads PDF, Markdown, HTML and DOCX documents. It extracts a
heading outline per document, or ranks sections across a batch of documents
for a persona and the job they need to get done.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to a YAML config file (env DOCINTEL_* overrides it)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log pipeline progress to stderr")

	root.AddCommand(newOutlineCmd(g), newAnalyzeCmd(g))
	return root
}

// load reads and validates configuration and builds the CLI logger.
func (g *globalFlags) load(stderr io.Writer, override func(*config.Config)) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logCfg := cfg.Log
	logCfg.Format = "text"
	if !g.verbose {
		logCfg.Level = "error"
	}
	return cfg, app.NewLogger(logCfg, stderr), nil
}
