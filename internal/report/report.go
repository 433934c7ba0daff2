// Package report builds and checks the JSON documents the service emits.
package report

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/docintel/internal/chunker"
	"github.com/dgallion1/docintel/internal/doctree"
)

// RefinedTextLimit caps subsection_analysis.refined_text, in characters.
const RefinedTextLimit = 1000

// Metadata describes one persona-analysis run.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

// ExtractedSection is one ranked section in the analysis.
type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

// SubsectionAnalysis carries the refined text of a selected section.
type SubsectionAnalysis struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Analysis is the persona-analysis JSON document.
type Analysis struct {
	Metadata           Metadata             `json:"metadata"`
	ExtractedSections  []ExtractedSection   `json:"extracted_sections"`
	SubsectionAnalysis []SubsectionAnalysis `json:"subsection_analysis"`
}

// Request identifies the inputs of an analysis run.
type Request struct {
	Documents []string
	Persona   string
	Job       string
}

// Build assembles the analysis for the selected chunks, which must already
// be in rank order. refinedChars <= 0 means RefinedTextLimit.
func Build(req Request, selected []doctree.RankedChunk, now time.Time, refinedChars int) Analysis {
	if refinedChars <= 0 || refinedChars > RefinedTextLimit {
		refinedChars = RefinedTextLimit
	}
	docs := make([]string, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = CleanText(filepath.Base(d))
	}

	a := Analysis{
		Metadata: Metadata{
			InputDocuments:      docs,
			Persona:             CleanText(req.Persona),
			JobToBeDone:         CleanText(req.Job),
			ProcessingTimestamp: now.UTC().Format(time.RFC3339),
		},
		ExtractedSections:  make([]ExtractedSection, 0, len(selected)),
		SubsectionAnalysis: make([]SubsectionAnalysis, 0, len(selected)),
	}
	for i, c := range selected {
		doc := CleanText(filepath.Base(c.DocumentID))
		a.ExtractedSections = append(a.ExtractedSections, ExtractedSection{
			Document:       doc,
			SectionTitle:   CleanText(c.SectionTitle),
			ImportanceRank: i + 1,
			PageNumber:     max(c.PageNumber, 1),
		})
		a.SubsectionAnalysis = append(a.SubsectionAnalysis, SubsectionAnalysis{
			Document:    doc,
			RefinedText: CleanText(chunker.Refine(c.Content, refinedChars)),
			PageNumber:  max(c.PageNumber, 1),
		})
	}
	return a
}

var spaceReplacer = strings.NewReplacer("\u202f", " ", "\u00a0", " ")

// CleanText replaces narrow and no-break spaces with plain spaces and trims
// the result.
func CleanText(s string) string {
	return strings.TrimSpace(spaceReplacer.Replace(s))
}
