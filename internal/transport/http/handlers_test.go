package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/internal/config"
	"datalens/internal/dataset"
	apierrors "datalens/internal/errors"
	"datalens/internal/services"
)

const citiesCSV = `city,population,region
baghdad,8126755,center
basra,2908491,south
erbil,1612700,north
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testRouter wires real services behind the handlers, the same shape the
// application mounts.
func testRouter(t *testing.T) chi.Router {
	t.Helper()

	logger := testLogger()
	store := dataset.NewStore(8, time.Hour, logger)
	cfg := config.DatasetsConfig{
		MaxUploadBytes: 1 << 20,
		MaxDatasets:    8,
		TTL:            time.Hour,
		SampleRows:     2,
		MaxMatrixRows:  100,
		MaxBins:        50,
		MaxPageSize:    100,
	}

	datasetSvc := services.NewDatasetService(store, cfg, nil, nil, logger)
	profileSvc := services.NewProfileService(store, cfg, nil, nil, logger)
	healthSvc := services.NewHealthService("test", "", store, nil, logger)

	errorHandler := apierrors.NewErrorHandler(logger, false)

	profileHandler := NewProfileHandler(profileSvc, logger, errorHandler)
	datasetHandler := NewDatasetHandler(datasetSvc, cfg.MaxUploadBytes, logger, errorHandler)
	healthHandler := NewHealthHandler(healthSvc, logger, errorHandler)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", healthHandler.Routes())
		r.Mount("/datasets", datasetHandler.Routes(profileHandler))
	})
	return r
}

// uploadCSV posts a multipart upload and returns the new dataset's ID.
func uploadCSV(t *testing.T, router chi.Router, csv string) string {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "cities.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data.ID
}

func doGET(router chi.Router, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestUploadAndGet(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Rows    int `json:"rows"`
			Cols    int `json:"cols"`
			Columns []struct {
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"columns"`
			Sample [][]string `json:"sample"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 3, resp.Data.Rows)
	assert.Equal(t, 3, resp.Data.Cols)
	require.Len(t, resp.Data.Columns, 3)
	assert.Equal(t, "int", resp.Data.Columns[1].Type)
	assert.Len(t, resp.Data.Sample, 2)
}

func TestUpload_MissingFilePart(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", strings.NewReader("not multipart"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "/errors/validation")
}

func TestUpload_UnparseableCSV(t *testing.T) {
	router := testRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "bad.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("a,b\n1,2\n3\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "/errors/dataset/unparseable")
}

func TestList(t *testing.T) {
	router := testRouter(t)
	uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestGet_NotFound(t *testing.T) {
	router := testRouter(t)

	w := doGET(router, "/api/datasets/no-such-id")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "/errors/dataset/not-found")
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRows_FilterAndPagination(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id+"/rows?filter_column=population&filter_op=gt&filter_value=2000000")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Rows      [][]string `json:"rows"`
			TotalRows int        `json:"total_rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.TotalRows)
	assert.Equal(t, "baghdad", resp.Data.Rows[0][0])
}

func TestRows_BadOperator(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id+"/rows?filter_column=city&filter_op=regex&filter_value=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "/errors/validation")
}

func TestSample(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id+"/sample?n=1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestExportCSV(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id+"/export?format=csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "baghdad")
}

func TestExport_UnknownDataset(t *testing.T) {
	router := testRouter(t)

	w := doGET(router, "/api/datasets/no-such-id/export?format=csv")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "/errors/dataset/not-found")
}

func TestExport_BadFormat(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id+"/export?format=pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelete(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	req := httptest.NewRequest(http.MethodDelete, "/api/datasets/"+id, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w2 := doGET(router, "/api/datasets/"+id)
	assert.Equal(t, http.StatusNotFound, w2.Code)
}

func TestProfile(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id+"/profile")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Rows    int `json:"rows"`
			Numeric []struct {
				Column string  `json:"column"`
				Count  int     `json:"count"`
				Mean   float64 `json:"mean"`
			} `json:"numeric"`
			Missing struct {
				TotalMissing int `json:"total_missing"`
			} `json:"missing"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.Rows)
	require.Len(t, resp.Data.Numeric, 1)
	assert.Equal(t, "population", resp.Data.Numeric[0].Column)
	assert.Equal(t, 3, resp.Data.Numeric[0].Count)
}

func TestMissing(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, "a,b\n1,x\n,y\n")

	w := doGET(router, "/api/datasets/"+id+"/missing")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_missing":1`)
}

func TestCorrelations_NoNumericColumns(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, "name,region\nbaghdad,center\nbasra,south\n")

	w := doGET(router, "/api/datasets/"+id+"/correlations")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "/errors/profile/no-numeric-columns")
}

func TestHistogram(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id+"/histogram?column=population&bins=5")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Bins []struct {
				Count int `json:"count"`
			} `json:"bins"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Bins, 5)
}

func TestHistogram_MissingColumnParam(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id+"/histogram")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScatter(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, "x,y,cat\n1,2,a\n2,4,b\n")

	w := doGET(router, "/api/datasets/"+id+"/scatter?x=x&y=y&color=cat")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestScatter_UnknownColumn(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id+"/scatter?x=population&y=altitude")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "/errors/dataset/column-not-found")
}

func TestValues(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id+"/values?column=region&top=2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Unique int `json:"unique"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.Unique)
}

func TestProfileExport(t *testing.T) {
	router := testRouter(t)
	id := uploadCSV(t, router, citiesCSV)

	w := doGET(router, "/api/datasets/"+id+"/profile/export?format=json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "profile-"+id+".json")
	assert.Contains(t, w.Body.String(), `"dataset_id"`)
}

func TestProfileExport_UnknownDataset(t *testing.T) {
	router := testRouter(t)

	w := doGET(router, "/api/datasets/no-such-id/profile/export?format=json")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestHealth(t *testing.T) {
	router := testRouter(t)

	w := doGET(router, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)

	var status services.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)

	w2 := doGET(router, "/api/health/version")
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), `"version":"test"`)

	w3 := doGET(router, "/api/health/live")
	require.Equal(t, http.StatusOK, w3.Code)
	assert.Contains(t, w3.Body.String(), `"alive"`)

	w4 := doGET(router, "/api/health/ready")
	require.Equal(t, http.StatusOK, w4.Code)
	assert.Contains(t, w4.Body.String(), `"ready"`)
}
