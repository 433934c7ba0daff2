package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sectionsSheet    = "Extracted Sections"
	subsectionsSheet = "Subsection Analysis"
)

// WriteXLSX writes the analysis as a two-sheet workbook.
func WriteXLSX(w io.Writer, a Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sectionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(subsectionsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	rows := [][]any{{"Rank", "Document", "Section", "Page"}}
	for _, s := range a.ExtractedSections {
		rows = append(rows, []any{s.ImportanceRank, s.Document, s.SectionTitle, s.PageNumber})
	}
	if err := writeRows(f, sectionsSheet, rows, header, []float64{8, 32, 48, 8}); err != nil {
		return err
	}

	rows = [][]any{{"Document", "Page", "Refined Text"}}
	for _, s := range a.SubsectionAnalysis {
		rows = append(rows, []any{s.Document, s.PageNumber, s.RefinedText})
	}
	if err := writeRows(f, subsectionsSheet, rows, header, []float64{32, 8, 100}); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int, widths []float64) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("%s width: %w", sheet, err)
		}
	}
	return nil
}
