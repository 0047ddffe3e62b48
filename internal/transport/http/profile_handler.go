package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "datalens/internal/errors"
	"datalens/internal/exporter"
)

// ProfileHandler serves the statistical views of a dataset.
type ProfileHandler struct {
	service      ProfileServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(service ProfileServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ProfileHandler {
	return &ProfileHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "profile_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes attaches the profiling routes to a dataset-scoped router,
// one that already carries the {id} URL parameter.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.Profile)
	r.Get("/profile/export", h.ExportReport)
	r.Get("/missing", h.Missing)
	r.Get("/correlations", h.Correlations)
	r.Get("/histogram", h.Histogram)
	r.Get("/scatter", h.Scatter)
	r.Get("/values", h.Values)
}

// Profile handles GET /api/datasets/{id}/profile.
func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

// ExportReport handles GET /api/datasets/{id}/profile/export?format=xlsx.
func (h *ProfileHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	// Render into a buffer first so a failed lookup or computation still
	// produces a problem document instead of an empty attachment.
	var buf bytes.Buffer
	if err := h.service.ExportReport(r.Context(), &buf, id, format); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="profile-%s.%s"`, id, format.Ext()))

	if _, err := buf.WriteTo(w); err != nil {
		h.logger.ErrorContext(r.Context(), "report export write failed",
			slog.String("dataset_id", id),
			slog.String("error", err.Error()))
	}
}

// Missing handles GET /api/datasets/{id}/missing.
func (h *ProfileHandler) Missing(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Missing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

// Correlations handles GET /api/datasets/{id}/correlations.
func (h *ProfileHandler) Correlations(w http.ResponseWriter, r *http.Request) {
	corr, err := h.service.Correlations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   corr,
	})
}

// Histogram handles GET /api/datasets/{id}/histogram?column=x&bins=20.
func (h *ProfileHandler) Histogram(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	if column == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("column", "column is required"))
		return
	}

	hist, err := h.service.Histogram(r.Context(), chi.URLParam(r, "id"), column, queryInt(r, "bins", 0))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   hist,
	})
}

// Scatter handles GET /api/datasets/{id}/scatter?x=a&y=b&color=c. When y is
// omitted the service picks the first numeric column other than x.
func (h *ProfileHandler) Scatter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	xCol, yCol := q.Get("x"), q.Get("y")
	if xCol == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("x", "x column is required"))
		return
	}

	scatter, err := h.service.Scatter(r.Context(), chi.URLParam(r, "id"), xCol, yCol, q.Get("color"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   scatter,
		"count":  len(scatter.Points),
	})
}

// Values handles GET /api/datasets/{id}/values?column=x&top=10.
func (h *ProfileHandler) Values(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	if column == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("column", "column is required"))
		return
	}

	counts, err := h.service.Values(r.Context(), chi.URLParam(r, "id"), column, queryInt(r, "top", 10))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   counts,
		"count":  len(counts.Values),
	})
}
