package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"datalens/internal/profile"
)

// Section is one table of a profile report, named so the Excel export can
// give each its own sheet.
type Section struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ReportSections flattens a profile report into tabular sections.
func ReportSections(r *profile.Report) []Section {
	sections := make([]Section, 0, 4)

	cols := Section{
		Name:   "Columns",
		Header: []string{"column", "type", "non_null", "missing"},
	}
	for _, c := range r.Columns {
		cols.Rows = append(cols.Rows, []string{
			c.Name, string(c.Type), strconv.Itoa(c.NonNull), strconv.Itoa(c.Missing),
		})
	}
	sections = append(sections, cols)

	if len(r.Numeric) > 0 {
		numeric := Section{
			Name:   "Summary",
			Header: []string{"column", "count", "mean", "std", "min", "q1", "median", "q3", "max"},
		}
		for _, s := range r.Numeric {
			numeric.Rows = append(numeric.Rows, []string{
				s.Column, strconv.Itoa(s.Count),
				statCell(s.Mean), statCell(s.Std), statCell(s.Min),
				statCell(s.Q1), statCell(s.Median), statCell(s.Q3), statCell(s.Max),
			})
		}
		sections = append(sections, numeric)
	}

	if r.Missing != nil {
		missing := Section{
			Name:   "Missing",
			Header: []string{"column", "missing", "percent"},
		}
		for _, m := range r.Missing.Columns {
			missing.Rows = append(missing.Rows, []string{
				m.Column, strconv.Itoa(m.Missing), formatFloat(m.Percent),
			})
		}
		sections = append(sections, missing)
	}

	if r.Corr != nil {
		corr := Section{
			Name:   "Correlations",
			Header: append([]string{"column"}, r.Corr.Columns...),
		}
		for i, name := range r.Corr.Columns {
			row := make([]string, 0, len(r.Corr.Columns)+1)
			row = append(row, name)
			for _, v := range r.Corr.Values[i] {
				row = append(row, statCell(v))
			}
			corr.Rows = append(corr.Rows, row)
		}
		sections = append(sections, corr)
	}

	return sections
}

// WriteReportCSV renders all report sections into one CSV stream, each
// section preceded by its name and separated by a blank line.
func WriteReportCSV(w io.Writer, r *profile.Report, opts CSVOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	for i, section := range ReportSections(r) {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{"# " + section.Name}); err != nil {
			return err
		}
		if err := cw.Write(section.Header); err != nil {
			return err
		}
		for _, row := range section.Rows {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// statCell renders a statistic, with NaN shown as an empty cell.
func statCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return formatFloat(v)
}
