package exporter

import (
	"encoding/json"
	"io"

	"datalens/internal/dataset"
	"datalens/internal/profile"
)

// WriteViewJSON renders a dataset view as indented JSON.
func WriteViewJSON(w io.Writer, view *dataset.View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

// WriteReportJSON renders a profile report as indented JSON.
func WriteReportJSON(w io.Writer, r *profile.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
