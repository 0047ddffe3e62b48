// Package exporter renders dataset views and profile reports to the
// downloadable formats the API offers. Writers take an io.Writer so the
// same code serves HTTP downloads and file output from the CLI.
package exporter

import (
	"fmt"
	"strconv"
	"strings"
)

// Format identifies an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat normalizes a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type to serve the format with.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Ext returns the file extension, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// formatFloat renders a statistic in its shortest round-trip form so values
// like 13.4 do not pick up trailing noise.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
