// Package profile computes the statistical views served over a dataset:
// per-column summaries, missing-value reports, correlation matrices,
// histograms, scatter extracts and categorical value counts. All numeric
// work excludes missing values, matching the conventions of standard
// dataframe tooling.
package profile

import (
	"time"

	"datalens/internal/dataset"
)

// NumericSummary is the eight-number description of a numeric column.
type NumericSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// MissingColumn reports the missing-value situation of one column.
type MissingColumn struct {
	Column  string  `json:"column"`
	Missing int     `json:"missing"`
	Percent float64 `json:"percent"`
}

// MissingReport combines per-column missing counts with a presence matrix
// for rendering a nullity chart. The matrix is row-sampled when the dataset
// exceeds MatrixRows.
type MissingReport struct {
	TotalCells   int             `json:"total_cells"`
	TotalMissing int             `json:"total_missing"`
	Columns      []MissingColumn `json:"columns"`
	Matrix       [][]bool        `json:"matrix"`
	MatrixRows   int             `json:"matrix_rows"`
	Sampled      bool            `json:"sampled"`
}

// CorrelationMatrix holds pairwise Pearson coefficients for the numeric
// columns, in column order. Cells with fewer than two complete pairs are NaN.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// HistogramBin is one bar of a histogram: [Start, End) except the last bin,
// which includes its upper edge.
type HistogramBin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// Histogram is the binned distribution of a numeric column.
type Histogram struct {
	Column  string         `json:"column"`
	Bins    []HistogramBin `json:"bins"`
	Count   int            `json:"count"`
	Missing int            `json:"missing"`
}

// ScatterPoint is one plotted observation, optionally labelled by a
// colour-by column.
type ScatterPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

// Scatter pairs two numeric columns. Rows missing either coordinate are
// dropped; Dropped records how many.
type Scatter struct {
	XColumn     string         `json:"x_column"`
	YColumn     string         `json:"y_column"`
	ColorColumn string         `json:"color_column,omitempty"`
	Points      []ScatterPoint `json:"points"`
	Dropped     int            `json:"dropped"`
}

// ValueCount is one distinct value and its frequency.
type ValueCount struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ValueCounts lists the most frequent values of a column, largest first.
type ValueCounts struct {
	Column string       `json:"column"`
	Unique int          `json:"unique"`
	Values []ValueCount `json:"values"`
}

// Report is the full profile of a dataset.
type Report struct {
	DatasetID  string             `json:"dataset_id"`
	Rows       int                `json:"rows"`
	Cols       int                `json:"cols"`
	Columns    []dataset.Column   `json:"columns"`
	Numeric    []NumericSummary   `json:"numeric"`
	Missing    *MissingReport     `json:"missing"`
	Computed   time.Time          `json:"computed_at"`
	ComputeDur time.Duration      `json:"-"`
	Corr       *CorrelationMatrix `json:"correlations,omitempty"`
}
