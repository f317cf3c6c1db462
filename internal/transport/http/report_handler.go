package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "ventaperdida/internal/errors"
	"ventaperdida/internal/exporter"
	"ventaperdida/internal/middleware"
	"ventaperdida/internal/services"
	api "ventaperdida/pkg/contracts/api/v1"
	"ventaperdida/pkg/contracts/domain"
)

// ReportHandler serves dashboards, grouped tables and exports with RFC 7807 errors
type ReportHandler struct {
	service      ReportServiceInterface
	validator    *middleware.QueryValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, validator *middleware.QueryValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/options", h.GetOptions)
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/aggregate", h.GetAggregate)
	r.Get("/export", h.GetExport)
	r.Get("/diagnostics", h.GetDiagnostics)
	r.Post("/refresh", h.PostRefresh)

	return r
}

// GetOptions handles GET /api/options
func (h *ReportHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, opts)
}

// GetDashboard handles GET /api/dashboard
func (h *ReportHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	var req api.DashboardRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	d, err := h.service.Dashboard(r.Context(), services.DashboardQuery{
		Filter:      req.Filter(),
		View:        domain.View(req.View),
		Accumulated: req.Accumulated,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("X-Source-Version", d.Version)
	render.JSON(w, r, d)
}

// GetAggregate handles GET /api/aggregate
func (h *ReportHandler) GetAggregate(w http.ResponseWriter, r *http.Request) {
	var req api.AggregateRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Aggregate(r.Context(), aggregateQuery(req))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("X-Source-Version", res.Version)
	render.JSON(w, r, res)
}

// GetExport handles GET /api/export and streams the file as an attachment
func (h *ReportHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("format", req.Format))
		return
	}

	exp, err := h.service.Export(r.Context(), format, aggregateQuery(req.AggregateRequest))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(exp.Data); err != nil {
		h.logger.WarnContext(r.Context(), "Export write failed",
			slog.String("file", exp.Filename),
			slog.String("error", err.Error()))
	}
}

// GetDiagnostics handles GET /api/diagnostics
func (h *ReportHandler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	diag, err := h.service.Diagnostics(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, diag)
}

// PostRefresh handles POST /api/refresh
func (h *ReportHandler) PostRefresh(w http.ResponseWriter, r *http.Request) {
	ds, err := h.service.Refresh(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Sources refreshed",
		slog.String("version", ds.Version),
		slog.String("request_id", middleware.GetRequestID(r.Context())))

	render.JSON(w, r, api.RefreshResponse{
		Version:     ds.Version,
		LoadedAt:    ds.LoadedAt,
		Files:       ds.Files,
		FilesLoaded: ds.FilesLoaded,
		Diagnostics: len(ds.Diagnostics),
	})
}

func aggregateQuery(req api.AggregateRequest) services.AggregateQuery {
	// dims already passed the dimensions validator
	dims, _ := domain.ParseDimensions(req.Dims)
	return services.AggregateQuery{
		Filter:       req.Filter(),
		Dimensions:   dims,
		Accumulated:  req.Accumulated,
		Compare:      req.Compare,
		PeriodChange: req.Change,
	}
}
