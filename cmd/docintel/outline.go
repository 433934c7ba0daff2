package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docintel/internal/pipeline"
	"github.com/dgallion1/docintel/internal/report"
	"github.com/dgallion1/docintel/internal/source"
)

func newOutlineCmd(g *globalFlags) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "outline <file|s3://bucket/key>...",
		Short: "Extract the title and heading outline of each document",
		Long: `Extract the title and H1-H3 outline of each document. With --out, one
<name>.json is written per input; otherwise outlines go to stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}

			// Outline extraction never touches the models.
			analyzer := pipeline.NewAnalyzer(nil, cfg.PipelineOptions(), log)
			fetcher := source.New(cfg.S3, cfg.Server.MaxUploadBytes)

			failed := 0
			for _, ref := range args {
				doc, err := fetcher.Fetch(cmd.Context(), ref)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", errorStyle.Render("✗"), ref, err)
					continue
				}
				ol, err := analyzer.Outline(pipeline.Document{Name: doc.Name, Data: doc.Data})
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", errorStyle.Render("✗"), ref, err)
					continue
				}
				warnInvalid(cmd.ErrOrStderr(), doc.Name, report.ValidateOutline(ol))

				path := ""
				if outDir != "" {
					path = filepath.Join(outDir, strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name))+".json")
				}
				if err := writeJSON(cmd.OutOrStdout(), path, ol); err != nil {
					return err
				}
				if path != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s %s\n", successStyle.Render("✓"), doc.Name,
						dimStyle.Render(fmt.Sprintf("→ %s (%d headings)", path, len(ol.Entries))))
				}
			}
			if failed == len(args) {
				return fmt.Errorf("no outlines extracted from %d documents", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for <name>.json outputs (default: stdout)")
	return cmd
}
