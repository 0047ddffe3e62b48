package profile

import (
	"datalens/internal/dataset"
)

// MissingValues builds the per-column missing report and presence matrix.
// maxMatrixRows caps the matrix for large datasets; zero means no cap.
func MissingValues(ds *dataset.Dataset, maxMatrixRows int) *MissingReport {
	rows := ds.Rows()
	columns := ds.Columns()

	report := &MissingReport{
		TotalCells: rows * len(columns),
		Columns:    make([]MissingColumn, len(columns)),
	}

	for i, col := range columns {
		pct := 0.0
		if rows > 0 {
			pct = float64(col.Missing) / float64(rows) * 100
		}
		report.Columns[i] = MissingColumn{
			Column:  col.Name,
			Missing: col.Missing,
			Percent: pct,
		}
		report.TotalMissing += col.Missing
	}

	report.Matrix = ds.Presence(maxMatrixRows)
	report.MatrixRows = len(report.Matrix)
	report.Sampled = report.MatrixRows < rows

	return report
}
