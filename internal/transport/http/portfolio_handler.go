package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "holdlens/internal/errors"
	"holdlens/internal/exporter"
	customMiddleware "holdlens/internal/middleware"
	"holdlens/internal/services"
	"holdlens/pkg/contracts/domain"
)

// Chart size bounds in pixels.
const (
	defaultChartWidth  = 800
	defaultChartHeight = 600
	minChartSize       = 100
	maxChartSize       = 2000
)

// AnalyzeRequest is the body of POST /api/portfolio/analyze.
type AnalyzeRequest struct {
	UserID          string `json:"user_id" validate:"required,pathsegment"`
	Filename        string `json:"filename" validate:"required,holdingsfile"`
	IncludeInsights bool   `json:"include_insights"`
}

type uploadRequest struct {
	Filename string `json:"filename" validate:"required,holdingsfile"`
}

type portfolioRef struct {
	UserID   string `json:"user_id" validate:"required,pathsegment"`
	Filename string `json:"filename" validate:"omitempty,holdingsfile"`
}

// PortfolioListResponse is the body of GET /api/portfolios/{user_id}.
type PortfolioListResponse struct {
	Portfolios []domain.StoredPortfolio `json:"portfolios"`
	Count      int                      `json:"count"`
}

// PortfolioHandler serves the portfolio analysis endpoints.
type PortfolioHandler struct {
	service        PortfolioService
	validator      *customMiddleware.ValidationMiddleware
	query          *customMiddleware.QueryParamValidator
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	concurrency    int
	logger         *slog.Logger
}

// NewPortfolioHandler creates a portfolio handler. Uploads larger than
// maxUploadBytes are rejected with 413.
func NewPortfolioHandler(service PortfolioService, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PortfolioHandler {
	return &PortfolioHandler{
		service:        service,
		validator:      customMiddleware.NewValidationMiddleware(logger, errorHandler, 64*1024),
		query:          customMiddleware.NewQueryParamValidator(errorHandler),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		concurrency:    4,
		logger:         logger.With(slog.String("component", "portfolio_handler")),
	}
}

// Routes registers the portfolio routes on r.
func (h *PortfolioHandler) Routes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.With(customMiddleware.ContentTypeValidator("application/json")).Post("/analyze", h.Analyze)
		r.With(customMiddleware.ContentTypeValidator("multipart/form-data")).Post("/upload", h.Upload)
		r.Get("/sample", h.Sample)
		r.Get("/sample/download", h.SampleDownload)
	})

	r.Route("/portfolios/{user_id}", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/analyses", h.AnalyzeAll)
		r.Get("/{filename}/chart.png", h.Chart)
		r.Get("/{filename}/holdings.csv", h.ExportCSV)
	})
}

// Analyze handles POST /api/portfolio/analyze
func (h *PortfolioHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.AnalyzeStored(r.Context(), req.UserID, req.Filename, req.IncludeInsights)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "portfolio analyzed",
		slog.String("user_id", req.UserID),
		slog.String("filename", req.Filename),
		slog.String("request_id", customMiddleware.GetRequestID(r.Context())))
	render.JSON(w, r, report)
}

// Upload handles POST /api/portfolio/upload
func (h *PortfolioHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.errorHandler.HandleError(w, r, uploadError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	if err := h.validator.ValidateStruct(uploadRequest{Filename: header.Filename}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	includeInsights := false
	if raw := r.FormValue("include_insights"); raw != "" {
		if includeInsights, err = strconv.ParseBool(raw); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("include_insights", "include_insights must be true or false"))
			return
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, uploadError(err))
		return
	}

	report, err := h.service.AnalyzeUpload(r.Context(), data, header.Filename, includeInsights)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// List handles GET /api/portfolios/{user_id}
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.portfolioRef(w, r)
	if !ok {
		return
	}

	portfolios, err := h.service.ListPortfolios(r.Context(), ref.UserID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if portfolios == nil {
		portfolios = []domain.StoredPortfolio{}
	}
	render.JSON(w, r, PortfolioListResponse{Portfolios: portfolios, Count: len(portfolios)})
}

// AnalyzeAll handles GET /api/portfolios/{user_id}/analyses
func (h *PortfolioHandler) AnalyzeAll(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.portfolioRef(w, r)
	if !ok {
		return
	}

	outcomes, err := h.service.AnalyzeAllStored(r.Context(), ref.UserID, h.concurrency)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if outcomes == nil {
		outcomes = []services.PortfolioOutcome{}
	}
	render.JSON(w, r, map[string]interface{}{
		"results": outcomes,
		"count":   len(outcomes),
	})
}

// Chart handles GET /api/portfolios/{user_id}/{filename}/chart.png
func (h *PortfolioHandler) Chart(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.portfolioRef(w, r)
	if !ok {
		return
	}
	width, ok := h.query.ValidateInt(w, r, "width", minChartSize, maxChartSize, defaultChartWidth)
	if !ok {
		return
	}
	height, ok := h.query.ValidateInt(w, r, "height", minChartSize, maxChartSize, defaultChartHeight)
	if !ok {
		return
	}

	img, err := h.service.AllocationChart(r.Context(), ref.UserID, ref.Filename, width, height)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

// ExportCSV handles GET /api/portfolios/{user_id}/{filename}/holdings.csv
func (h *PortfolioHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.portfolioRef(w, r)
	if !ok {
		return
	}

	report, err := h.service.AnalyzeStored(r.Context(), ref.UserID, ref.Filename, false)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteHoldingsCSV(&buf, report.Analysis, exporter.WriteOptions{BOMPrefix: true}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ref.Filename+".holdings.csv"))
	_, _ = w.Write(buf.Bytes())
}

// Sample handles GET /api/portfolio/sample
func (h *PortfolioHandler) Sample(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Sample())
}

// SampleDownload handles GET /api/portfolio/sample/download?format=xlsx|csv
func (h *PortfolioHandler) SampleDownload(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = exporter.WriteSampleWorkbook(&buf, services.SamplePortfolio())
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = exporter.WriteSampleCSV(&buf, services.SamplePortfolio(), exporter.WriteOptions{})
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "format must be one of: xlsx, csv"))
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "sample_portfolio."+format))
	_, _ = w.Write(buf.Bytes())
}

func (h *PortfolioHandler) portfolioRef(w http.ResponseWriter, r *http.Request) (portfolioRef, bool) {
	ref := portfolioRef{
		UserID:   chi.URLParam(r, "user_id"),
		Filename: chi.URLParam(r, "filename"),
	}
	if err := h.validator.ValidateStruct(ref); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return ref, false
	}
	return ref, true
}

// uploadError passes size-limit errors through and treats the rest as a
// malformed request.
func uploadError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return apierrors.InvalidRequestWithError(err)
}
