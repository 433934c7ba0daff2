package report

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/docintel/internal/doctree"
)

// ErrInvalid wraps every contract violation found by the validators.
var ErrInvalid = errors.New("report: invalid document")

// ValidateOutline checks an outline against the published JSON contract.
func ValidateOutline(o doctree.Outline) error {
	var errs []error
	if o.Title == "" {
		errs = append(errs, errors.New("title is empty"))
	}
	if o.Entries == nil {
		errs = append(errs, errors.New("outline is null"))
	}
	for i, e := range o.Entries {
		if !e.Level.Valid() {
			errs = append(errs, fmt.Errorf("outline[%d]: level %q", i, e.Level))
		}
		if e.Text == "" {
			errs = append(errs, fmt.Errorf("outline[%d]: empty text", i))
		}
		if e.Page < 1 {
			errs = append(errs, fmt.Errorf("outline[%d]: page %d", i, e.Page))
		}
		if i > 0 && e.Page < o.Entries[i-1].Page {
			errs = append(errs, fmt.Errorf("outline[%d]: page %d before page %d", i, e.Page, o.Entries[i-1].Page))
		}
	}
	return joinInvalid(errs)
}

// ValidateAnalysis checks a persona analysis against the published JSON
// contract.
func ValidateAnalysis(a Analysis) error {
	var errs []error
	m := a.Metadata
	if len(m.InputDocuments) == 0 {
		errs = append(errs, errors.New("metadata.input_documents is empty"))
	}
	if m.Persona == "" {
		errs = append(errs, errors.New("metadata.persona is empty"))
	}
	if m.JobToBeDone == "" {
		errs = append(errs, errors.New("metadata.job_to_be_done is empty"))
	}
	if _, err := time.Parse(time.RFC3339, m.ProcessingTimestamp); err != nil {
		errs = append(errs, fmt.Errorf("metadata.processing_timestamp: %w", err))
	}

	inputs := make(map[string]bool, len(m.InputDocuments))
	for _, d := range m.InputDocuments {
		inputs[d] = true
	}

	for i, s := range a.ExtractedSections {
		if s.ImportanceRank != i+1 {
			errs = append(errs, fmt.Errorf("extracted_sections[%d]: importance_rank %d, want %d", i, s.ImportanceRank, i+1))
		}
		if s.PageNumber < 1 {
			errs = append(errs, fmt.Errorf("extracted_sections[%d]: page_number %d", i, s.PageNumber))
		}
		if s.SectionTitle == "" {
			errs = append(errs, fmt.Errorf("extracted_sections[%d]: empty section_title", i))
		}
		if !inputs[s.Document] {
			errs = append(errs, fmt.Errorf("extracted_sections[%d]: unknown document %q", i, s.Document))
		}
	}
	for i, s := range a.SubsectionAnalysis {
		if n := utf8.RuneCountInString(s.RefinedText); n > RefinedTextLimit {
			errs = append(errs, fmt.Errorf("subsection_analysis[%d]: refined_text has %d chars", i, n))
		}
		if s.PageNumber < 1 {
			errs = append(errs, fmt.Errorf("subsection_analysis[%d]: page_number %d", i, s.PageNumber))
		}
		if !inputs[s.Document] {
			errs = append(errs, fmt.Errorf("subsection_analysis[%d]: unknown document %q", i, s.Document))
		}
	}
	return joinInvalid(errs)
}

func joinInvalid(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
