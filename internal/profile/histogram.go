package profile

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"datalens/internal/dataset"
	"datalens/internal/errors"
)

// DefaultBins is the bin count used when the caller does not pick one.
const DefaultBins = 20

// ComputeHistogram bins a numeric column into bins equal-width intervals.
// Missing values are excluded and reported separately. bins outside
// [1, maxBins] are clamped; a maxBins of zero means no upper clamp.
func ComputeHistogram(ds *dataset.Dataset, column string, bins, maxBins int) (*Histogram, error) {
	col, ok := ds.Column(column)
	if !ok {
		return nil, errors.ColumnNotFoundError(column)
	}
	if !col.Type.IsNumeric() {
		return nil, errors.NewAppValidationError("column " + column + " is not numeric")
	}

	if bins <= 0 {
		bins = DefaultBins
	}
	if maxBins > 0 && bins > maxBins {
		bins = maxBins
	}

	raw, _ := ds.FloatColumn(column)
	vals := dropNaN(raw)
	missing := len(raw) - len(vals)

	h := &Histogram{Column: column, Count: len(vals), Missing: missing}
	if len(vals) == 0 {
		h.Bins = []HistogramBin{}
		return h, nil
	}

	sort.Float64s(vals)
	lo, hi := vals[0], vals[len(vals)-1]

	if lo == hi {
		// Degenerate distribution, a single bar holds everything.
		h.Bins = []HistogramBin{{Start: lo, End: hi, Count: len(vals)}}
		return h, nil
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram buckets are half-open, nudge the last divider so the
	// maximum lands in the final bin.
	dividers[len(dividers)-1] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, vals, nil)

	h.Bins = make([]HistogramBin, bins)
	for i := 0; i < bins; i++ {
		end := dividers[i+1]
		if i == bins-1 {
			end = hi
		}
		h.Bins[i] = HistogramBin{
			Start: dividers[i],
			End:   end,
			Count: int(counts[i]),
		}
	}
	return h, nil
}
