package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `name,age,score,active
alice,30,91.5,true
bob,25,78.25,false
carol,,88.0,true
dave,41,,false
`

func TestParseCSV_TypesAndCounts(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV), "sample.csv", int64(len(sampleCSV)))
	require.NoError(t, err)

	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "sample.csv", ds.Name)
	assert.Equal(t, 4, ds.Rows())
	assert.Equal(t, 4, ds.Cols())
	assert.Equal(t, []string{"name", "age", "score", "active"}, ds.Header())

	tests := []struct {
		column  string
		dtype   DType
		missing int
	}{
		{"name", DTypeString, 0},
		{"age", DTypeInt, 1},
		{"score", DTypeFloat, 1},
		{"active", DTypeBool, 0},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			col, ok := ds.Column(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.dtype, col.Type)
			assert.Equal(t, tt.missing, col.Missing)
			assert.Equal(t, ds.Rows()-tt.missing, col.NonNull)
		})
	}
}

func TestParseCSV_MissingValueTokens(t *testing.T) {
	csv := "v\n1.5\nNA\nN/A\nnull\nNULL\nnan\n2.5\n"
	ds, err := ParseCSV(strings.NewReader(csv), "tokens.csv", int64(len(csv)))
	require.NoError(t, err)

	col, ok := ds.Column("v")
	require.True(t, ok)
	assert.Equal(t, DTypeFloat, col.Type)
	assert.Equal(t, 5, col.Missing)
	assert.Equal(t, 2, col.NonNull)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "header only",
			input:   "a,b,c\n",
			wantErr: "parse",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: "empty",
		},
		{
			name:    "blank column name",
			input:   "a,,c\n1,2,3\n",
			wantErr: "blank column name",
		},
		{
			name:    "duplicate column name",
			input:   "a,b,a\n1,2,3\n",
			wantErr: "duplicate column",
		},
		{
			name:    "ragged rows",
			input:   "a,b\n1,2\n3\n",
			wantErr: "parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input), tt.name, int64(len(tt.input)))
			require.Error(t, err)
			assert.Contains(t, strings.ToLower(err.Error()), strings.ToLower(tt.wantErr))
		})
	}
}

func TestDataset_NumericAndCategoricalColumns(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV), "sample.csv", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "score"}, ds.NumericColumns())
	assert.Equal(t, []string{"name", "active"}, ds.CategoricalColumns())
}

func TestDataset_HeadAndRecords(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV), "sample.csv", 0)
	require.NoError(t, err)

	head := ds.Head(2)
	require.Len(t, head, 2)
	assert.Equal(t, []string{"alice", "30", "91.5", "true"}, head[0])

	all := ds.Records()
	require.Len(t, all, 4)
	// Missing cells render as empty strings.
	assert.Equal(t, "", all[2][1])
	assert.Equal(t, "", all[3][2])

	// Head beyond the row count returns everything.
	assert.Len(t, ds.Head(100), 4)
}

func TestDataset_FloatColumn(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV), "sample.csv", 0)
	require.NoError(t, err)

	vals, ok := ds.FloatColumn("score")
	require.True(t, ok)
	require.Len(t, vals, 4)
	assert.InDelta(t, 91.5, vals[0], 1e-9)

	_, ok = ds.FloatColumn("nope")
	assert.False(t, ok)
}

func TestDataset_Presence(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV), "sample.csv", 0)
	require.NoError(t, err)

	matrix := ds.Presence(0)
	require.Len(t, matrix, 4)
	assert.True(t, matrix[0][1])
	assert.False(t, matrix[2][1])
	assert.False(t, matrix[3][2])

	capped := ds.Presence(2)
	assert.Len(t, capped, 2)
}
