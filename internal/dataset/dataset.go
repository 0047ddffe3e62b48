// Package dataset holds uploaded tabular data in memory and answers
// row/column queries against it. Parsing and typing are delegated to the
// gota dataframe library; this package mirrors gota's series types into a
// small DType enum the rest of the application works with.
package dataset

import (
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// DType is the inferred type of a column.
type DType string

const (
	DTypeFloat  DType = "float"
	DTypeInt    DType = "int"
	DTypeBool   DType = "bool"
	DTypeString DType = "string"
)

// IsNumeric reports whether the column type participates in numeric
// computations (describe, correlations, histograms, scatter axes).
func (t DType) IsNumeric() bool {
	return t == DTypeFloat || t == DTypeInt
}

// Column describes a single dataset column: its inferred type plus the
// non-null/missing breakdown the profile view reports.
type Column struct {
	Name    string `json:"name"`
	Type    DType  `json:"type"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
}

// Dataset is an immutable parsed table. All mutation happens at parse time;
// concurrent readers need no locking.
type Dataset struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
	SizeBytes  int64     `json:"size_bytes"`

	df      dataframe.DataFrame
	columns []Column
}

// Rows returns the number of data rows.
func (d *Dataset) Rows() int {
	return d.df.Nrow()
}

// Cols returns the number of columns.
func (d *Dataset) Cols() int {
	return d.df.Ncol()
}

// Columns returns the per-column metadata in dataset order.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// Column looks up a single column by name.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the dataset contains the named column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.Column(name)
	return ok
}

// Header returns the column names in dataset order.
func (d *Dataset) Header() []string {
	return d.df.Names()
}

// NumericColumns returns the names of all numeric columns in dataset order.
func (d *Dataset) NumericColumns() []string {
	var names []string
	for _, c := range d.columns {
		if c.Type.IsNumeric() {
			names = append(names, c.Name)
		}
	}
	return names
}

// CategoricalColumns returns the names of all non-numeric columns.
func (d *Dataset) CategoricalColumns() []string {
	var names []string
	for _, c := range d.columns {
		if !c.Type.IsNumeric() {
			names = append(names, c.Name)
		}
	}
	return names
}

// Head returns up to n leading rows as string records, without the header.
func (d *Dataset) Head(n int) [][]string {
	rows := dataRecords(d.df)
	if n > len(rows) {
		n = len(rows)
	}
	if n <= 0 {
		return [][]string{}
	}
	return rows[:n]
}

// Records returns all data rows as string records, without the header.
// Missing values render as empty strings.
func (d *Dataset) Records() [][]string {
	return dataRecords(d.df)
}

// FloatColumn returns the named column as float64 values with NaN in place
// of missing or non-numeric cells. The second return is false when the
// column does not exist.
func (d *Dataset) FloatColumn(name string) ([]float64, bool) {
	if !d.HasColumn(name) {
		return nil, false
	}
	return d.df.Col(name).Float(), true
}

// StringColumn returns the named column as display strings, with empty
// strings for missing cells.
func (d *Dataset) StringColumn(name string) ([]string, bool) {
	if !d.HasColumn(name) {
		return nil, false
	}

	col := d.df.Col(name)
	out := make([]string, col.Len())
	for i := 0; i < col.Len(); i++ {
		el := col.Elem(i)
		if el.IsNA() {
			out[i] = ""
			continue
		}
		out[i] = el.String()
	}
	return out, true
}

// Presence returns a row-major boolean matrix where true means the cell has
// a value. Rows beyond maxRows are dropped; the caller reports the sampling.
func (d *Dataset) Presence(maxRows int) [][]bool {
	rows := d.Rows()
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}

	cols := make([]series.Series, d.Cols())
	for j, name := range d.df.Names() {
		cols[j] = d.df.Col(name)
	}

	matrix := make([][]bool, rows)
	for i := 0; i < rows; i++ {
		matrix[i] = make([]bool, len(cols))
		for j := range cols {
			matrix[i][j] = !cols[j].Elem(i).IsNA()
		}
	}
	return matrix
}

// dataRecords renders a dataframe's data rows as display strings. Missing
// cells become empty strings and floats use the shortest round-trip form
// instead of gota's fixed six decimals.
func dataRecords(df dataframe.DataFrame) [][]string {
	names := df.Names()
	cols := make([]series.Series, len(names))
	for j, name := range names {
		cols[j] = df.Col(name)
	}

	rows := make([][]string, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		row := make([]string, len(cols))
		for j := range cols {
			el := cols[j].Elem(i)
			switch {
			case el.IsNA():
				row[j] = ""
			case cols[j].Type() == series.Float:
				f := el.Float()
				if math.IsNaN(f) {
					row[j] = ""
				} else {
					row[j] = strconv.FormatFloat(f, 'g', -1, 64)
				}
			default:
				row[j] = el.String()
			}
		}
		rows[i] = row
	}
	return rows
}

// dtypeOf maps a gota series type onto our DType enum.
func dtypeOf(t series.Type) DType {
	switch t {
	case series.Float:
		return DTypeFloat
	case series.Int:
		return DTypeInt
	case series.Bool:
		return DTypeBool
	default:
		return DTypeString
	}
}

// countMissing counts NA elements in a series. Float NaN values that gota
// keeps as valid elements are counted as missing too, matching the
// pandas isnull view of the column.
func countMissing(s series.Series) int {
	missing := 0
	for i := 0; i < s.Len(); i++ {
		el := s.Elem(i)
		if el.IsNA() {
			missing++
			continue
		}
		if s.Type() == series.Float && math.IsNaN(el.Float()) {
			missing++
		}
	}
	return missing
}
