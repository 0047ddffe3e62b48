package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"datalens/internal/dataset"
	"datalens/internal/profile"
)

// WriteViewXLSX renders a dataset view as a single-sheet workbook.
func WriteViewXLSX(w io.Writer, view *dataset.View) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Data"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := writeSheet(f, sheet, view.Columns, view.Rows); err != nil {
		return err
	}

	return f.Write(w)
}

// WriteReportXLSX renders a profile report as a workbook with one sheet per
// section.
func WriteReportXLSX(w io.Writer, r *profile.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sections := ReportSections(r)
	for i, section := range sections {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", section.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(section.Name); err != nil {
				return fmt.Errorf("failed to add sheet %s: %w", section.Name, err)
			}
		}
		if err := writeSheet(f, section.Name, section.Header, section.Rows); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// writeSheet fills a sheet with a header row and string records.
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string) error {
	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return nil
}
