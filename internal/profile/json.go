package profile

import (
	"encoding/json"
	"math"
)

// NaN is not representable in JSON, so the types that can legitimately carry
// it (undefined std, correlations with too few pairs) marshal it as null.

// MarshalJSON renders NaN statistics as null.
func (s NumericSummary) MarshalJSON() ([]byte, error) {
	type summary struct {
		Column string   `json:"column"`
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		Q1     *float64 `json:"q1"`
		Median *float64 `json:"median"`
		Q3     *float64 `json:"q3"`
		Max    *float64 `json:"max"`
	}
	return json.Marshal(summary{
		Column: s.Column,
		Count:  s.Count,
		Mean:   jsonFloat(s.Mean),
		Std:    jsonFloat(s.Std),
		Min:    jsonFloat(s.Min),
		Q1:     jsonFloat(s.Q1),
		Median: jsonFloat(s.Median),
		Q3:     jsonFloat(s.Q3),
		Max:    jsonFloat(s.Max),
	})
}

// MarshalJSON renders undefined correlation cells as null.
func (m CorrelationMatrix) MarshalJSON() ([]byte, error) {
	type matrix struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			values[i][j] = jsonFloat(v)
		}
	}
	return json.Marshal(matrix{Columns: m.Columns, Values: values})
}

// jsonFloat returns nil for values JSON cannot carry.
func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
