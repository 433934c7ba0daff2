package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/docintel/internal/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

// writeJSON writes v with four-space indentation to path, or to w when path
// is empty.
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// formatDocResult renders one per-document progress line.
func formatDocResult(r pipeline.DocResult) string {
	switch r.Status {
	case pipeline.DocRanked:
		return fmt.Sprintf("%s %s %s", successStyle.Render("✓"), r.Name,
			dimStyle.Render(fmt.Sprintf("(%d headings, %d chunks, best %.2f)", r.Headings, r.Chunks, r.BestScore)))
	case pipeline.DocDuplicate:
		return fmt.Sprintf("%s %s %s", warnStyle.Render("="), r.Name, dimStyle.Render("duplicate, skipped"))
	default:
		return fmt.Sprintf("%s %s %s", errorStyle.Render("✗"), r.Name, dimStyle.Render(r.Reason))
	}
}

// formatSummary renders the boxed batch summary.
func formatSummary(res *pipeline.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", dimStyle.Render("Persona:"), titleStyle.Render(res.Analysis.Metadata.Persona))
	fmt.Fprintf(&b, "%s %s\n", dimStyle.Render("Job:"), res.Analysis.Metadata.JobToBeDone)

	ranked := 0
	for _, d := range res.Documents {
		if d.Status == pipeline.DocRanked {
			ranked++
		}
	}
	fmt.Fprintf(&b, "%s %d/%d ranked", dimStyle.Render("Documents:"), ranked, len(res.Documents))
	if res.Partial {
		fmt.Fprintf(&b, " %s", warnStyle.Render("(partial: batch deadline hit)"))
	}

	for _, s := range res.Analysis.ExtractedSections {
		fmt.Fprintf(&b, "\n%s %s %s",
			titleStyle.Render(fmt.Sprintf("%d.", s.ImportanceRank)),
			s.SectionTitle,
			dimStyle.Render(fmt.Sprintf("%s p.%d", s.Document, s.PageNumber)))
	}
	return boxStyle.Render(b.String())
}

// warnInvalid prints a validation failure without aborting; the output is
// still written.
func warnInvalid(w io.Writer, what string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s: %v\n", warnStyle.Render("warning:"), what, err)
}
