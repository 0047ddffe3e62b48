package services

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"datalens/internal/config"
	"datalens/internal/dataset"
	apierrors "datalens/internal/errors"
	"datalens/internal/exporter"
	"datalens/internal/infrastructure"
	"datalens/internal/profile"
	ws "datalens/internal/websocket"
)

// ProfileService computes statistical views over stored datasets.
type ProfileService struct {
	store   *dataset.Store
	cfg     config.DatasetsConfig
	hub     *ws.Hub
	metrics *infrastructure.ExplorerMetrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewProfileService creates a profile service. hub and metrics may be nil.
func NewProfileService(store *dataset.Store, cfg config.DatasetsConfig, hub *ws.Hub, metrics *infrastructure.ExplorerMetrics, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		store:   store,
		cfg:     cfg,
		hub:     hub,
		metrics: metrics,
		logger:  logger.With(slog.String("service", "profile")),
		tracer:  otel.Tracer("datalens/profile"),
	}
}

// Profile computes the full report for a dataset.
func (s *ProfileService) Profile(ctx context.Context, id string) (*profile.Report, error) {
	ctx, span := s.tracer.Start(ctx, "profile.build",
		trace.WithAttributes(attribute.String("dataset.id", id)))
	defer span.End()

	ds, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastWithTrace(ws.TypeProfileStarted,
			map[string]string{"dataset_id": id}, infrastructure.GetTraceID(ctx))
	}

	report, err := profile.BuildReport(ctx, ds, profile.Options{
		MaxMatrixRows: s.cfg.MaxMatrixRows,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ProfilesComputed.Add(ctx, 1,
			metric.WithAttributes(attribute.Int("columns", ds.Cols())))
	}

	s.logger.InfoContext(ctx, "profile computed",
		slog.String("dataset_id", id),
		slog.Int("rows", report.Rows),
		slog.Int("cols", report.Cols),
		slog.Duration("compute_duration", report.ComputeDur))

	if s.hub != nil {
		s.hub.BroadcastWithTrace(ws.TypeProfileComplete, map[string]interface{}{
			"dataset_id":  id,
			"duration_ms": report.ComputeDur.Milliseconds(),
		}, infrastructure.GetTraceID(ctx))
	}

	return report, nil
}

// Missing returns the missing-value report with the presence matrix.
func (s *ProfileService) Missing(ctx context.Context, id string) (*profile.MissingReport, error) {
	ds, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return profile.MissingValues(ds, s.cfg.MaxMatrixRows), nil
}

// Correlations returns the Pearson correlation matrix of the numeric columns.
func (s *ProfileService) Correlations(ctx context.Context, id string) (*profile.CorrelationMatrix, error) {
	ctx, span := s.tracer.Start(ctx, "profile.correlations",
		trace.WithAttributes(attribute.String("dataset.id", id)))
	defer span.End()

	ds, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	corr, err := profile.Correlations(ds)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return corr, nil
}

// Histogram bins a numeric column.
func (s *ProfileService) Histogram(ctx context.Context, id, column string, bins int) (*profile.Histogram, error) {
	ds, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return profile.ComputeHistogram(ds, column, bins, s.cfg.MaxBins)
}

// Scatter extracts point pairs from two numeric columns. An empty yCol
// defaults to the first numeric column other than xCol.
func (s *ProfileService) Scatter(ctx context.Context, id, xCol, yCol, colorBy string) (*profile.Scatter, error) {
	ds, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if yCol == "" {
		for _, name := range ds.NumericColumns() {
			if name != xCol {
				yCol = name
				break
			}
		}
		if yCol == "" {
			return nil, apierrors.ErrNoNumericColumns
		}
	}

	return profile.ComputeScatter(ds, xCol, yCol, colorBy)
}

// Values tallies the most frequent values of a column.
func (s *ProfileService) Values(ctx context.Context, id, column string, topK int) (*profile.ValueCounts, error) {
	ds, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return profile.CountValues(ds, column, topK)
}

// ExportReport streams the full profile report in the requested format.
func (s *ProfileService) ExportReport(ctx context.Context, w io.Writer, id string, format exporter.Format) error {
	report, err := s.Profile(ctx, id)
	if err != nil {
		return err
	}

	switch format {
	case exporter.FormatXLSX:
		err = exporter.WriteReportXLSX(w, report)
	case exporter.FormatJSON:
		err = exporter.WriteReportJSON(w, report)
	default:
		err = exporter.WriteReportCSV(w, report, exporter.CSVOptions{BOMPrefix: true})
	}
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ExportsTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("format", string(format)),
				attribute.String("kind", "report")))
	}
	return nil
}

func (s *ProfileService) lookup(id string) (*dataset.Dataset, error) {
	ds, err := s.store.Get(id)
	if err != nil {
		return nil, datasetNotFound(id)
	}
	return ds, nil
}
