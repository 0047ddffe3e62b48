package http

import (
	"context"
	"io"

	"datalens/internal/dataset"
	"datalens/internal/exporter"
	"datalens/internal/profile"
	"datalens/internal/services"
)

// DatasetServiceInterface defines the dataset operations handlers depend on.
type DatasetServiceInterface interface {
	Upload(ctx context.Context, r io.Reader, filename string, sizeBytes int64) (*services.DatasetDetail, error)
	List(ctx context.Context) []services.DatasetSummary
	Get(ctx context.Context, id string) (*services.DatasetDetail, error)
	Sample(ctx context.Context, id string, n int) (*dataset.View, error)
	Rows(ctx context.Context, id string, f *dataset.Filter, columns []string, page, pageSize int) (*dataset.View, error)
	Export(ctx context.Context, w io.Writer, id string, f *dataset.Filter, columns []string, format exporter.Format) error
	Delete(ctx context.Context, id string) error
}

// ProfileServiceInterface defines the profiling operations handlers depend on.
type ProfileServiceInterface interface {
	Profile(ctx context.Context, id string) (*profile.Report, error)
	Missing(ctx context.Context, id string) (*profile.MissingReport, error)
	Correlations(ctx context.Context, id string) (*profile.CorrelationMatrix, error)
	Histogram(ctx context.Context, id, column string, bins int) (*profile.Histogram, error)
	Scatter(ctx context.Context, id, xCol, yCol, colorBy string) (*profile.Scatter, error)
	Values(ctx context.Context, id, column string, topK int) (*profile.ValueCounts, error)
	ExportReport(ctx context.Context, w io.Writer, id string, format exporter.Format) error
}

// HealthServiceInterface defines the health operations handlers depend on.
type HealthServiceInterface interface {
	Status(ctx context.Context) *services.HealthStatus
	Live(ctx context.Context) *services.ProbeResult
	Ready(ctx context.Context) *services.ProbeResult
	Version(ctx context.Context) *services.VersionInfo
}
