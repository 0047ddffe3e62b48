package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"datalens/internal/dataset"
)

// utf8BOM helps Excel recognize UTF-8 CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV rendering.
type CSVOptions struct {
	// BOMPrefix prepends a UTF-8 BOM for Excel compatibility.
	BOMPrefix bool
}

// WriteViewCSV streams a dataset view as CSV: header row first, then data.
func WriteViewCSV(w io.Writer, view *dataset.View, opts CSVOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(view.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range view.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
