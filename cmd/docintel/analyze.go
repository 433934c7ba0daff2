package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docintel/internal/app"
	"github.com/dgallion1/docintel/internal/config"
	"github.com/dgallion1/docintel/internal/pipeline"
	"github.com/dgallion1/docintel/internal/report"
	"github.com/dgallion1/docintel/internal/source"
)

type analyzeFlags struct {
	persona   string
	job       string
	modelDir  string
	outPath   string
	xlsxPath  string
	noSummary bool
}

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze --persona P --job J <file|s3://bucket/key>...",
		Short: "Rank the sections of a document batch for a persona and job",
		Long: `Rank the sections of every document against the persona and the job they
need done, then select the top sections across the batch. The analysis JSON
goes to --out or stdout; --xlsx additionally writes a workbook.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, g, f, args)
		},
	}
	cmd.Flags().StringVarP(&f.persona, "persona", "p", "", "Persona role description (required)")
	cmd.Flags().StringVarP(&f.job, "job", "j", "", "Job to be done (required)")
	cmd.Flags().StringVar(&f.modelDir, "models", "", "Model artifact directory (overrides ranker.model_dir)")
	cmd.Flags().StringVarP(&f.outPath, "out", "o", "", "Write analysis JSON to this file (default: stdout)")
	cmd.Flags().StringVar(&f.xlsxPath, "xlsx", "", "Also write an XLSX workbook to this file")
	cmd.Flags().BoolVar(&f.noSummary, "no-summary", false, "Do not print the terminal summary")
	cmd.MarkFlagRequired("persona")
	cmd.MarkFlagRequired("job")
	return cmd
}

func runAnalyze(cmd *cobra.Command, g *globalFlags, f *analyzeFlags, args []string) error {
	stderr := cmd.ErrOrStderr()
	cfg, log, err := g.load(stderr, func(c *config.Config) {
		if f.modelDir != "" {
			c.Ranker.ModelDir = f.modelDir
		}
	})
	if err != nil {
		return err
	}

	fetcher := source.New(cfg.S3, cfg.Server.MaxUploadBytes)
	var docs []pipeline.Document
	for _, ref := range args {
		doc, err := fetcher.Fetch(cmd.Context(), ref)
		if err != nil {
			fmt.Fprintf(stderr, "%s %s: %v\n", errorStyle.Render("✗"), ref, err)
			continue
		}
		docs = append(docs, pipeline.Document{Name: doc.Name, Data: doc.Data})
	}
	if len(docs) == 0 {
		return errors.New("no documents could be read")
	}

	var mu sync.Mutex
	req := pipeline.Request{
		Persona:   f.persona,
		Job:       f.job,
		Documents: docs,
		OnDocument: func(r pipeline.DocResult) {
			if f.noSummary {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintln(stderr, formatDocResult(r))
		},
	}
	// Validate before the models load.
	if err := req.Validate(); err != nil {
		return err
	}

	rk, closeRanker, err := app.OpenRanker(cfg, nil, log)
	if err != nil {
		return err
	}
	defer closeRanker()

	res, err := pipeline.NewAnalyzer(rk, cfg.PipelineOptions(), log).Analyze(cmd.Context(), req)
	if err != nil {
		return err
	}
	warnInvalid(stderr, "analysis", report.ValidateAnalysis(res.Analysis))

	if err := writeJSON(cmd.OutOrStdout(), f.outPath, res.Analysis); err != nil {
		return err
	}
	if f.xlsxPath != "" {
		if err := writeWorkbook(f.xlsxPath, res.Analysis); err != nil {
			return err
		}
	}
	if !f.noSummary {
		fmt.Fprintln(stderr, formatSummary(res))
	}
	return nil
}

func writeWorkbook(path string, a report.Analysis) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	if err := report.WriteXLSX(out, a); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
