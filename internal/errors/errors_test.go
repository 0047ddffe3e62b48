package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAPIError(t *testing.T) {
	err := New(http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset not found")
	assert.Equal(t, "Dataset not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(422, TypeUnparseableCSV, "Unprocessable Entity", "bad csv", "/api/datasets").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeUnparseableCSV, decoded["type"])
	assert.Equal(t, float64(422), decoded["status"])
	assert.Equal(t, "abc", decoded["trace_id"])
	assert.Equal(t, "bad csv", decoded["detail"])
}

func TestErrorHandler_APIError(t *testing.T) {
	h := NewErrorHandler(testLogger(), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "dataset not found",
			err:        DatasetNotFoundError("abc"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeDatasetNotFound,
		},
		{
			name:       "column not found",
			err:        ColumnNotFoundError("age"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeColumnNotFound,
		},
		{
			name:       "unparseable csv",
			err:        ParseError(errors.New("bad quoting")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeUnparseableCSV,
		},
		{
			name:       "no numeric columns",
			err:        ErrNoNumericColumns,
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeNoNumericColumns,
		},
		{
			name:       "validation",
			err:        ErrValidation("bins", "must be positive"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "generic",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/datasets/abc/profile", nil)
			w := httptest.NewRecorder()

			h.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantType, problem["type"])
		})
	}
}

func TestErrorHandler_AppError(t *testing.T) {
	h := NewErrorHandler(testLogger(), false)

	r := httptest.NewRequest(http.MethodPost, "/api/datasets", nil)
	w := httptest.NewRecorder()

	h.HandleError(w, r, fmt.Errorf("wrapped: %w", NewParsingError("bad header row", errors.New("eof"))))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := NewStorageError("write failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "STORAGE")
	assert.Contains(t, err.Error(), "write failed")
}
