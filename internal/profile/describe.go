package profile

import (
	"math"

	"github.com/montanaflynn/stats"

	"datalens/internal/dataset"
	"datalens/internal/errors"
)

// Describe summarizes every numeric column of the dataset. Missing values
// are excluded before computing; a column with no remaining values yields a
// summary with Count zero and NaN statistics.
func Describe(ds *dataset.Dataset) ([]NumericSummary, error) {
	numeric := ds.NumericColumns()
	if len(numeric) == 0 {
		return nil, errors.ErrNoNumericColumns
	}

	out := make([]NumericSummary, 0, len(numeric))
	for _, name := range numeric {
		vals, _ := ds.FloatColumn(name)
		out = append(out, describeColumn(name, dropNaN(vals)))
	}
	return out, nil
}

// DescribeColumn summarizes a single numeric column.
func DescribeColumn(ds *dataset.Dataset, name string) (NumericSummary, error) {
	col, ok := ds.Column(name)
	if !ok {
		return NumericSummary{}, errors.ColumnNotFoundError(name)
	}
	if !col.Type.IsNumeric() {
		return NumericSummary{}, errors.NewAppValidationError("column " + name + " is not numeric")
	}

	vals, _ := ds.FloatColumn(name)
	return describeColumn(name, dropNaN(vals)), nil
}

func describeColumn(name string, vals []float64) NumericSummary {
	s := NumericSummary{Column: name, Count: len(vals)}
	if len(vals) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	data := stats.Float64Data(vals)
	s.Mean, _ = stats.Mean(data)
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	s.Median, _ = stats.Median(data)

	// Sample standard deviation, undefined for a single observation.
	if len(vals) > 1 {
		s.Std, _ = stats.StandardDeviationSample(data)
	} else {
		s.Std = math.NaN()
	}

	if q, err := stats.Quartile(data); err == nil {
		s.Q1, s.Q3 = q.Q1, q.Q3
	} else {
		s.Q1, s.Q3 = s.Median, s.Median
	}
	return s
}

// dropNaN returns the values with NaN entries removed. gota reports missing
// cells of a float column as NaN, so this is the missing-value exclusion.
func dropNaN(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
