package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"

	"datalens/internal/errors"
)

// nanValues are the cell contents treated as missing on load, mirroring the
// pandas read_csv defaults the original tool relied on.
var nanValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL"}

// ParseCSV reads a CSV stream into a Dataset. Type detection is performed by
// gota per column; a column where every non-missing cell parses as a number
// comes back numeric, otherwise it stays a string column.
//
// The header is validated before parsing because gota silently renames blank
// and duplicate column names, and we want those surfaced to the uploader.
func ParseCSV(r io.Reader, name string, sizeBytes int64) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewParsingError("failed to read upload", err)
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	if err := validateHeader(raw); err != nil {
		return nil, err
	}

	df := dataframe.ReadCSV(bytes.NewReader(raw),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, errors.NewParsingError("failed to parse CSV", df.Err)
	}

	if df.Ncol() == 0 {
		return nil, errors.NewParsingError("CSV contains no columns", nil)
	}
	if df.Nrow() == 0 {
		return nil, errors.NewParsingError("CSV contains no data rows", nil)
	}

	types := df.Types()
	columns := make([]Column, df.Ncol())
	for i, colName := range df.Names() {
		col := df.Col(colName)
		missing := countMissing(col)
		columns[i] = Column{
			Name:    colName,
			Type:    dtypeOf(types[i]),
			NonNull: col.Len() - missing,
			Missing: missing,
		}
	}

	return &Dataset{
		ID:         uuid.New().String(),
		Name:       name,
		UploadedAt: time.Now().UTC(),
		SizeBytes:  sizeBytes,
		df:         df,
		columns:    columns,
	}, nil
}

// validateHeader reads just the first record and rejects blank or duplicate
// column names, which would make every by-name lookup ambiguous downstream.
func validateHeader(raw []byte) error {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	names, err := reader.Read()
	if err == io.EOF {
		return errors.NewParsingError("CSV is empty", nil)
	}
	if err != nil {
		return errors.NewParsingError("failed to parse CSV header", err)
	}

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return errors.NewParsingError("CSV header contains a blank column name", nil)
		}
		if _, dup := seen[name]; dup {
			return errors.NewParsingError(fmt.Sprintf("CSV header contains duplicate column %q", name), nil)
		}
		seen[name] = struct{}{}
	}
	return nil
}
