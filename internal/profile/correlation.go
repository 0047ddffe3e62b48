package profile

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"datalens/internal/dataset"
	"datalens/internal/errors"
)

// Correlations computes the Pearson correlation matrix over the numeric
// columns, pairwise complete: for each pair only rows where both values are
// present contribute. Pairs with fewer than two complete observations, or a
// constant column, produce NaN. A single numeric column yields the
// degenerate 1x1 matrix; only a dataset with none at all is an error.
func Correlations(ds *dataset.Dataset) (*CorrelationMatrix, error) {
	numeric := ds.NumericColumns()
	if len(numeric) == 0 {
		return nil, errors.ErrNoNumericColumns
	}

	cols := make([][]float64, len(numeric))
	for i, name := range numeric {
		cols[i], _ = ds.FloatColumn(name)
	}

	values := make([][]float64, len(numeric))
	for i := range values {
		values[i] = make([]float64, len(numeric))
		values[i][i] = 1
	}

	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			r := pairwiseCorrelation(cols[i], cols[j])
			values[i][j] = r
			values[j][i] = r
		}
	}

	return &CorrelationMatrix{Columns: numeric, Values: values}, nil
}

// pairwiseCorrelation drops rows where either side is NaN, then delegates to
// gonum's Pearson correlation.
func pairwiseCorrelation(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for k := range x {
		if math.IsNaN(x[k]) || math.IsNaN(y[k]) {
			continue
		}
		xs = append(xs, x[k])
		ys = append(ys, y[k])
	}

	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
