package services

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/internal/config"
	"datalens/internal/dataset"
	"datalens/internal/exporter"
)

const citiesCSV = `city,population,region
baghdad,8126755,center
basra,2908491,south
erbil,1612700,north
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testDatasetsConfig() config.DatasetsConfig {
	return config.DatasetsConfig{
		MaxUploadBytes: 1 << 20,
		MaxDatasets:    4,
		TTL:            time.Hour,
		SampleRows:     2,
		MaxMatrixRows:  100,
		MaxBins:        50,
		MaxPageSize:    100,
	}
}

func newTestServices(t *testing.T) (*DatasetService, *ProfileService) {
	t.Helper()
	store := dataset.NewStore(4, time.Hour, testLogger())
	cfg := testDatasetsConfig()
	return NewDatasetService(store, cfg, nil, nil, testLogger()),
		NewProfileService(store, cfg, nil, nil, testLogger())
}

func upload(t *testing.T, svc *DatasetService, csv string) *DatasetDetail {
	t.Helper()
	detail, err := svc.Upload(context.Background(), strings.NewReader(csv), "test.csv", int64(len(csv)))
	require.NoError(t, err)
	return detail
}

func TestDatasetService_Upload(t *testing.T) {
	svc, _ := newTestServices(t)

	detail := upload(t, svc, citiesCSV)
	assert.NotEmpty(t, detail.ID)
	assert.Equal(t, 3, detail.Rows)
	assert.Equal(t, 3, detail.Cols)
	require.Len(t, detail.Columns, 3)
	// Sample respects the configured size.
	assert.Len(t, detail.Sample, 2)
}

func TestDatasetService_UploadRejectsBadCSV(t *testing.T) {
	svc, _ := newTestServices(t)

	_, err := svc.Upload(context.Background(), strings.NewReader("a,a\n1,2\n"), "dup.csv", 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestDatasetService_ListAndGet(t *testing.T) {
	svc, _ := newTestServices(t)
	detail := upload(t, svc, citiesCSV)

	list := svc.List(context.Background())
	require.Len(t, list, 1)
	assert.Equal(t, detail.ID, list[0].ID)

	got, err := svc.Get(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, detail.ID, got.ID)

	_, err = svc.Get(context.Background(), "missing-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDatasetService_Rows(t *testing.T) {
	svc, _ := newTestServices(t)
	detail := upload(t, svc, citiesCSV)

	view, err := svc.Rows(context.Background(), detail.ID,
		&dataset.Filter{Column: "region", Op: dataset.OpEq, Value: "south"}, nil, 1, 10)
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "basra", view.Rows[0][0])

	_, err = svc.Rows(context.Background(), detail.ID,
		&dataset.Filter{Column: "region", Op: dataset.Op("regex"), Value: "x"}, nil, 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operator")
}

func TestDatasetService_RowsClampsPageSize(t *testing.T) {
	svc, _ := newTestServices(t)
	detail := upload(t, svc, citiesCSV)

	view, err := svc.Rows(context.Background(), detail.ID, nil, nil, 1, 100000)
	require.NoError(t, err)
	assert.Equal(t, 100, view.PageSize)
}

func TestDatasetService_Export(t *testing.T) {
	svc, _ := newTestServices(t)
	detail := upload(t, svc, citiesCSV)

	var buf bytes.Buffer
	err := svc.Export(context.Background(), &buf, detail.ID, nil, nil, exporter.FormatCSV)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "city,population,region")
	assert.Contains(t, buf.String(), "baghdad")
}

func TestDatasetService_Delete(t *testing.T) {
	svc, _ := newTestServices(t)
	detail := upload(t, svc, citiesCSV)

	require.NoError(t, svc.Delete(context.Background(), detail.ID))
	assert.Empty(t, svc.List(context.Background()))

	err := svc.Delete(context.Background(), detail.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestProfileService_Profile(t *testing.T) {
	svc, profiles := newTestServices(t)
	detail := upload(t, svc, citiesCSV)

	report, err := profiles.Profile(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, detail.ID, report.DatasetID)
	assert.Len(t, report.Numeric, 1)
	require.NotNil(t, report.Missing)

	_, err = profiles.Profile(context.Background(), "missing-id")
	require.Error(t, err)
}

func TestProfileService_Histogram(t *testing.T) {
	svc, profiles := newTestServices(t)
	detail := upload(t, svc, citiesCSV)

	h, err := profiles.Histogram(context.Background(), detail.ID, "population", 100)
	require.NoError(t, err)
	// Bin count clamped by configuration.
	assert.Len(t, h.Bins, 50)

	_, err = profiles.Histogram(context.Background(), detail.ID, "city", 10)
	require.Error(t, err)
}

func TestProfileService_ScatterAndValues(t *testing.T) {
	svc, profiles := newTestServices(t)
	csv := "x,y,cat\n1,2,a\n2,4,b\n3,6,a\n"
	detail, err := svc.Upload(context.Background(), strings.NewReader(csv), "xy.csv", int64(len(csv)))
	require.NoError(t, err)

	sc, err := profiles.Scatter(context.Background(), detail.ID, "x", "y", "cat")
	require.NoError(t, err)
	assert.Len(t, sc.Points, 3)

	// Omitted y falls back to the first numeric column other than x.
	sc, err = profiles.Scatter(context.Background(), detail.ID, "x", "", "")
	require.NoError(t, err)
	assert.Equal(t, "y", sc.YColumn)
	assert.Len(t, sc.Points, 3)

	vc, err := profiles.Values(context.Background(), detail.ID, "cat", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, vc.Unique)
	assert.Equal(t, "a", vc.Values[0].Value)
}

func TestProfileService_ExportReport(t *testing.T) {
	svc, profiles := newTestServices(t)
	detail := upload(t, svc, citiesCSV)

	var buf bytes.Buffer
	require.NoError(t, profiles.ExportReport(context.Background(), &buf, detail.ID, exporter.FormatJSON))
	assert.Contains(t, buf.String(), `"dataset_id"`)
}

func TestHealthService(t *testing.T) {
	store := dataset.NewStore(4, 0, testLogger())
	health := NewHealthService("1.2.3", "2026-01-01", store, nil, testLogger())

	status := health.Status(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Equal(t, 0, status.Runtime.Datasets)
	assert.NotEmpty(t, status.Runtime.GoVersion)

	info := health.Version(context.Background())
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "2026-01-01", info.BuildTime)

	assert.Equal(t, "alive", health.Live(context.Background()).Status)
	assert.Equal(t, "ready", health.Ready(context.Background()).Status)
}
