package profile

import (
	"math"

	"datalens/internal/dataset"
	"datalens/internal/errors"
)

// ComputeScatter extracts (x, y) pairs from two numeric columns, optionally
// labelling each point with the value of colorBy. Rows missing either
// coordinate are dropped and counted.
func ComputeScatter(ds *dataset.Dataset, xCol, yCol, colorBy string) (*Scatter, error) {
	for _, name := range []string{xCol, yCol} {
		col, ok := ds.Column(name)
		if !ok {
			return nil, errors.ColumnNotFoundError(name)
		}
		if !col.Type.IsNumeric() {
			return nil, errors.NewAppValidationError("column " + name + " is not numeric")
		}
	}

	xs, _ := ds.FloatColumn(xCol)
	ys, _ := ds.FloatColumn(yCol)

	var labels []string
	if colorBy != "" {
		var ok bool
		labels, ok = ds.StringColumn(colorBy)
		if !ok {
			return nil, errors.ColumnNotFoundError(colorBy)
		}
	}

	sc := &Scatter{
		XColumn:     xCol,
		YColumn:     yCol,
		ColorColumn: colorBy,
		Points:      make([]ScatterPoint, 0, len(xs)),
	}

	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			sc.Dropped++
			continue
		}
		p := ScatterPoint{X: xs[i], Y: ys[i]}
		if labels != nil {
			p.Label = labels[i]
		}
		sc.Points = append(sc.Points, p)
	}
	return sc, nil
}
