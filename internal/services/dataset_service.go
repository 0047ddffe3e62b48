package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"datalens/internal/config"
	"datalens/internal/dataset"
	"datalens/internal/errors"
	"datalens/internal/exporter"
	"datalens/internal/infrastructure"
	ws "datalens/internal/websocket"
)

// DatasetService handles dataset lifecycle: upload, listing, row access,
// exports and deletion.
type DatasetService struct {
	store   *dataset.Store
	cfg     config.DatasetsConfig
	hub     *ws.Hub
	metrics *infrastructure.ExplorerMetrics
	logger  *slog.Logger
}

// DatasetSummary is the listing view of a stored dataset.
type DatasetSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
	SizeBytes  int64     `json:"size_bytes"`
	Rows       int       `json:"rows"`
	Cols       int       `json:"cols"`
}

// DatasetDetail extends the summary with column metadata and a sample of
// leading rows, what the upload screen renders first.
type DatasetDetail struct {
	DatasetSummary
	Columns []dataset.Column `json:"columns"`
	Sample  [][]string       `json:"sample"`
}

// NewDatasetService creates a dataset service. hub and metrics may be nil.
func NewDatasetService(store *dataset.Store, cfg config.DatasetsConfig, hub *ws.Hub, metrics *infrastructure.ExplorerMetrics, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}

	svc := &DatasetService{
		store:   store,
		cfg:     cfg,
		hub:     hub,
		metrics: metrics,
		logger:  logger.With(slog.String("service", "dataset")),
	}

	store.SetEvictionCallback(func(id string) {
		if svc.metrics != nil {
			svc.metrics.DatasetsActive.Add(context.Background(), -1)
		}
		if svc.hub != nil {
			svc.hub.Broadcast(ws.TypeDatasetEvicted, map[string]string{"dataset_id": id})
		}
	})

	return svc
}

// Upload parses a CSV stream and stores the resulting dataset.
func (s *DatasetService) Upload(ctx context.Context, r io.Reader, filename string, sizeBytes int64) (*DatasetDetail, error) {
	start := time.Now()

	ds, err := dataset.ParseCSV(r, filename, sizeBytes)
	if err != nil {
		if s.metrics != nil {
			s.metrics.DatasetParseErrors.Add(ctx, 1)
		}
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.store.Put(ds)

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.DatasetsUploaded.Add(ctx, 1)
		s.metrics.DatasetsActive.Add(ctx, 1)
		s.metrics.DatasetParseSeconds.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(attribute.Int("columns", ds.Cols())))
	}

	s.logger.InfoContext(ctx, "dataset uploaded",
		slog.String("dataset_id", ds.ID),
		slog.String("filename", filename),
		slog.Int("rows", ds.Rows()),
		slog.Int("cols", ds.Cols()),
		slog.Int64("size_bytes", sizeBytes),
		slog.Duration("parse_duration", elapsed))

	if s.hub != nil {
		s.hub.BroadcastWithTrace(ws.TypeDatasetUploaded, map[string]interface{}{
			"dataset_id": ds.ID,
			"name":       ds.Name,
			"rows":       ds.Rows(),
			"cols":       ds.Cols(),
		}, infrastructure.GetTraceID(ctx))
	}

	return s.detail(ds), nil
}

// List returns summaries of all stored datasets, newest first.
func (s *DatasetService) List(ctx context.Context) []DatasetSummary {
	all := s.store.List()
	out := make([]DatasetSummary, len(all))
	for i, ds := range all {
		out[i] = summarize(ds)
	}
	return out
}

// Get returns the detail view of one dataset.
func (s *DatasetService) Get(ctx context.Context, id string) (*DatasetDetail, error) {
	ds, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.detail(ds), nil
}

// Sample returns the first n rows of a dataset. n <= 0 uses the configured
// sample size.
func (s *DatasetService) Sample(ctx context.Context, id string, n int) (*dataset.View, error) {
	ds, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if n <= 0 {
		n = s.cfg.SampleRows
	}
	return ds.View(nil, nil, 1, n)
}

// Rows returns a filtered, column-selected page of a dataset.
func (s *DatasetService) Rows(ctx context.Context, id string, f *dataset.Filter, columns []string, page, pageSize int) (*dataset.View, error) {
	ds, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if pageSize <= 0 || pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}
	if f != nil && !dataset.ValidOp(f.Op) {
		return nil, errors.NewAppValidationError("unsupported filter operator " + string(f.Op))
	}

	return ds.View(f, columns, page, pageSize)
}

// Export streams a filtered view of a dataset in the requested format.
func (s *DatasetService) Export(ctx context.Context, w io.Writer, id string, f *dataset.Filter, columns []string, format exporter.Format) error {
	ds, err := s.lookup(id)
	if err != nil {
		return err
	}

	view, err := ds.View(f, columns, 1, 0)
	if err != nil {
		return err
	}

	switch format {
	case exporter.FormatXLSX:
		err = exporter.WriteViewXLSX(w, view)
	case exporter.FormatJSON:
		err = exporter.WriteViewJSON(w, view)
	default:
		err = exporter.WriteViewCSV(w, view, exporter.CSVOptions{BOMPrefix: true})
	}
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ExportsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("format", string(format))))
	}

	s.logger.InfoContext(ctx, "dataset exported",
		slog.String("dataset_id", id),
		slog.String("format", string(format)),
		slog.Int("rows", view.TotalRows))
	return nil
}

// Delete removes a dataset.
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	if !s.store.Delete(id) {
		return datasetNotFound(id)
	}

	if s.metrics != nil {
		s.metrics.DatasetsActive.Add(ctx, -1)
	}

	s.logger.InfoContext(ctx, "dataset deleted", slog.String("dataset_id", id))

	if s.hub != nil {
		s.hub.BroadcastWithTrace(ws.TypeDatasetDeleted,
			map[string]string{"dataset_id": id}, infrastructure.GetTraceID(ctx))
	}
	return nil
}

// lookup fetches a dataset, translating the storage error into the API error
// carrying the dataset ID.
func (s *DatasetService) lookup(id string) (*dataset.Dataset, error) {
	ds, err := s.store.Get(id)
	if err != nil {
		return nil, datasetNotFound(id)
	}
	return ds, nil
}

func (s *DatasetService) detail(ds *dataset.Dataset) *DatasetDetail {
	return &DatasetDetail{
		DatasetSummary: summarize(ds),
		Columns:        ds.Columns(),
		Sample:         ds.Head(s.cfg.SampleRows),
	}
}

func summarize(ds *dataset.Dataset) DatasetSummary {
	return DatasetSummary{
		ID:         ds.ID,
		Name:       ds.Name,
		UploadedAt: ds.UploadedAt,
		SizeBytes:  ds.SizeBytes,
		Rows:       ds.Rows(),
		Cols:       ds.Cols(),
	}
}
