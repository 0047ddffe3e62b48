package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"datalens/internal/dataset"
	apierrors "datalens/internal/errors"
	"datalens/internal/exporter"
)

// DatasetHandler handles dataset lifecycle HTTP requests.
type DatasetHandler struct {
	service        DatasetServiceInterface
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewDatasetHandler creates a dataset handler.
func NewDatasetHandler(service DatasetServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "dataset_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the dataset routes. The profile handler's routes nest
// under the same {id} scope so one router owns the whole dataset surface.
func (h *DatasetHandler) Routes(profiles *ProfileHandler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Get("/", h.List)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Get("/sample", h.Sample)
		r.Get("/rows", h.Rows)
		r.Get("/export", h.Export)

		if profiles != nil {
			profiles.RegisterRoutes(r)
		}
	})

	return r
}

// DatasetCtx validates the dataset ID parameter.
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "Dataset ID is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Upload handles POST /api/datasets: a multipart form with a "file" part.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "A CSV file upload is required"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "dataset upload received",
		slog.String("request_id", reqID),
		slog.String("filename", header.Filename),
		slog.Int64("size_bytes", header.Size))

	detail, err := h.service.Upload(r.Context(), file, header.Filename, header.Size)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   detail,
	})
}

// List handles GET /api/datasets.
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	datasets := h.service.List(r.Context())

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   datasets,
		"count":  len(datasets),
	})
}

// Get handles GET /api/datasets/{id}.
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   detail,
	})
}

// Delete handles DELETE /api/datasets/{id}.
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
	})
}

// Sample handles GET /api/datasets/{id}/sample?n=5.
func (h *DatasetHandler) Sample(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", 0)

	view, err := h.service.Sample(r.Context(), chi.URLParam(r, "id"), n)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
		"count":  len(view.Rows),
	})
}

// Rows handles GET /api/datasets/{id}/rows with filtering, column selection
// and pagination.
func (h *DatasetHandler) Rows(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Rows(r.Context(), chi.URLParam(r, "id"),
		filter, parseColumns(r), queryInt(r, "page", 1), queryInt(r, "page_size", 0))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
		"count":  len(view.Rows),
	})
}

// Export handles GET /api/datasets/{id}/export?format=csv and serves the
// filtered dataset as an attachment.
func (h *DatasetHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Render into a buffer first so lookup and filter failures still produce
	// a problem document instead of an empty attachment.
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), &buf, id, filter, parseColumns(r), format); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="dataset-%s.%s"`, id, format.Ext()))

	if _, err := buf.WriteTo(w); err != nil {
		// Headers are out, log-only from here.
		h.logger.ErrorContext(r.Context(), "export write failed",
			slog.String("dataset_id", id),
			slog.String("error", err.Error()))
	}
}

// parseFilter builds an optional row filter from query parameters. All three
// of filter_column, filter_op and filter_value must be present together.
func parseFilter(r *http.Request) (*dataset.Filter, error) {
	q := r.URL.Query()
	column := q.Get("filter_column")
	op := q.Get("filter_op")
	value := q.Get("filter_value")

	if column == "" && op == "" && value == "" {
		return nil, nil
	}
	if column == "" {
		return nil, apierrors.ErrValidation("filter_column", "filter_column is required when filtering")
	}
	if op == "" {
		op = string(dataset.OpEq)
	}
	if !dataset.ValidOp(dataset.Op(op)) {
		return nil, apierrors.ErrValidation("filter_op", fmt.Sprintf("unsupported operator %q", op))
	}

	return &dataset.Filter{Column: column, Op: dataset.Op(op), Value: value}, nil
}

// parseColumns reads the comma-separated columns parameter.
func parseColumns(r *http.Request) []string {
	raw := r.URL.Query().Get("columns")
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	columns := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			columns = append(columns, p)
		}
	}
	return columns
}

// queryInt reads an integer query parameter, falling back on absence or junk.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
