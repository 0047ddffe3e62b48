package dataset

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"datalens/internal/errors"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpContains Op = "contains"
)

// comparators maps our operators onto gota series comparators.
var comparators = map[Op]series.Comparator{
	OpEq:  series.Eq,
	OpNe:  series.Neq,
	OpGt:  series.Greater,
	OpGte: series.GreaterEq,
	OpLt:  series.Less,
	OpLte: series.LessEq,
}

// ValidOp reports whether the operator is supported.
func ValidOp(op Op) bool {
	if op == OpContains {
		return true
	}
	_, ok := comparators[op]
	return ok
}

// Filter selects rows where the named column satisfies Op against Value.
// Value is compared using the column's inferred type.
type Filter struct {
	Column string `json:"column"`
	Op     Op     `json:"op"`
	Value  string `json:"value"`
}

// View is a filtered, column-selected, paginated window over a dataset.
type View struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
}

// View applies an optional filter and column selection, then returns the
// requested page. Page numbering is 1-based; pageSize <= 0 returns all rows.
func (d *Dataset) View(f *Filter, columns []string, page, pageSize int) (*View, error) {
	df := d.df

	if f != nil {
		filtered, err := d.applyFilter(df, f)
		if err != nil {
			return nil, err
		}
		df = filtered
	}

	if len(columns) > 0 {
		for _, name := range columns {
			if !d.HasColumn(name) {
				return nil, errors.ColumnNotFoundError(name)
			}
		}
		df = df.Select(columns)
		if df.Err != nil {
			return nil, errors.NewAppValidationError(fmt.Sprintf("column selection failed: %v", df.Err))
		}
	}

	total := df.Nrow()
	rows := dataRecords(df)

	if page < 1 {
		page = 1
	}
	if pageSize > 0 {
		start := (page - 1) * pageSize
		if start >= len(rows) {
			rows = [][]string{}
		} else {
			end := start + pageSize
			if end > len(rows) {
				end = len(rows)
			}
			rows = rows[start:end]
		}
	}

	return &View{
		Columns:   df.Names(),
		Rows:      rows,
		TotalRows: total,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

// applyFilter translates a Filter into a gota dataframe.F and applies it.
func (d *Dataset) applyFilter(df dataframe.DataFrame, f *Filter) (dataframe.DataFrame, error) {
	col, ok := d.Column(f.Column)
	if !ok {
		return df, errors.ColumnNotFoundError(f.Column)
	}

	if f.Op == OpContains {
		needle := f.Value
		filtered := df.Filter(dataframe.F{
			Colname:    f.Column,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				if el.IsNA() {
					return false
				}
				return strings.Contains(el.String(), needle)
			},
		})
		if filtered.Err != nil {
			return df, errors.NewAppValidationError(fmt.Sprintf("filter failed: %v", filtered.Err))
		}
		return filtered, nil
	}

	comparator, ok := comparators[f.Op]
	if !ok {
		return df, errors.NewAppValidationError(fmt.Sprintf("unsupported filter operator %q", f.Op))
	}

	// Ordering comparators require a numeric column; gota would otherwise
	// compare lexicographically, which surprises users.
	if f.Op != OpEq && f.Op != OpNe && !col.Type.IsNumeric() {
		return df, errors.NewAppValidationError(
			fmt.Sprintf("operator %q requires a numeric column, %q is %s", f.Op, f.Column, col.Type))
	}

	filtered := df.Filter(dataframe.F{
		Colname:    f.Column,
		Comparator: comparator,
		Comparando: f.Value,
	})
	if filtered.Err != nil {
		return df, errors.NewAppValidationError(fmt.Sprintf("filter failed: %v", filtered.Err))
	}
	return filtered, nil
}
