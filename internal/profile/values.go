package profile

import (
	"sort"

	"datalens/internal/dataset"
	"datalens/internal/errors"
)

// CountValues tallies the distinct values of a column and returns the topK
// most frequent, largest first with ties broken by value. Missing cells are
// excluded. topK <= 0 returns every distinct value.
func CountValues(ds *dataset.Dataset, column string, topK int) (*ValueCounts, error) {
	vals, ok := ds.StringColumn(column)
	if !ok {
		return nil, errors.ColumnNotFoundError(column)
	}

	counts := make(map[string]int)
	present := 0
	for _, v := range vals {
		if v == "" {
			continue
		}
		counts[v]++
		present++
	}

	out := &ValueCounts{
		Column: column,
		Unique: len(counts),
		Values: make([]ValueCount, 0, len(counts)),
	}

	for v, n := range counts {
		pct := 0.0
		if present > 0 {
			pct = float64(n) / float64(present) * 100
		}
		out.Values = append(out.Values, ValueCount{Value: v, Count: n, Percent: pct})
	}

	sort.Slice(out.Values, func(i, j int) bool {
		if out.Values[i].Count != out.Values[j].Count {
			return out.Values[i].Count > out.Values[j].Count
		}
		return out.Values[i].Value < out.Values[j].Value
	})

	if topK > 0 && len(out.Values) > topK {
		out.Values = out.Values[:topK]
	}
	return out, nil
}
