package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/spectrum-media/quote-api/internal/service"
	"go.uber.org/zap"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ReportHandler struct {
	reportService *service.ReportService
	// archiveRetention is applied when an archive is created on demand
	archiveRetention int
	logger           *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, archiveRetention int, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService:    reportService,
		archiveRetention: archiveRetention,
		logger:           logger,
	}
}

func parseDateRange(r *http.Request) (service.DateRange, error) {
	var dr service.DateRange
	var err error
	if dr.From, err = parseDateQuery(r, "from"); err != nil {
		return dr, err
	}
	if dr.To, err = parseDateQuery(r, "to"); err != nil {
		return dr, err
	}
	return dr, nil
}

// reportFilename builds "<prefix>-<from>_<to>.csv", using "inicio"/"hoy" for open ends
func reportFilename(prefix string, dr service.DateRange) string {
	from, to := "inicio", "hoy"
	if dr.From != nil {
		from = dr.From.Format("20060102")
	}
	if dr.To != nil {
		to = dr.To.Format("20060102")
	}
	return fmt.Sprintf("%s-%s_%s.csv", prefix, from, to)
}

// ODCReport godoc
// @Summary Download the ODC report
// @Description CSV with columns Fecha, ODC, OI, Proveedor, Monto Q, Descripcion, Actividad
// @Tags Reports
// @Produce text/csv
// @Param from query string false "Date from (YYYY-MM-DD)"
// @Param to query string false "Date to (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/odc [get]
func (h *ReportHandler) ODCReport(w http.ResponseWriter, r *http.Request) {
	dr, err := parseDateRange(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	content, err := h.reportService.ODCReport(r.Context(), dr)
	if err != nil {
		h.handleReportError(w, err)
		return
	}
	respondFile(w, csvContentType, reportFilename("reporte-odc", dr), content)
}

// PettyCashReport godoc
// @Summary Download the petty cash accounting report
// @Description CSV in the accounting import layout
// @Tags Reports
// @Produce text/csv
// @Param from query string false "Date from (YYYY-MM-DD)"
// @Param to query string false "Date to (YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/petty-cash [get]
func (h *ReportHandler) PettyCashReport(w http.ResponseWriter, r *http.Request) {
	dr, err := parseDateRange(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	content, err := h.reportService.PettyCashReport(r.Context(), dr)
	if err != nil {
		h.handleReportError(w, err)
		return
	}
	respondFile(w, csvContentType, reportFilename("caja-chica", dr), content)
}

// BudgetExecutionWorkbook godoc
// @Summary Download the budget execution workbook
// @Description XLSX with one row per OI and a monthly sheet
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param year query int false "Fiscal year (defaults to the current year)"
// @Param mallId query string false "Filter by mall"
// @Param activityTypeId query string false "Filter by activity type"
// @Success 200 {file} file
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/budget-execution [get]
func (h *ReportHandler) BudgetExecutionWorkbook(w http.ResponseWriter, r *http.Request) {
	filters, err := parseDashboardFilters(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filters.Year == 0 {
		filters.Year = time.Now().UTC().Year()
	}
	content, err := h.reportService.BudgetExecutionWorkbook(r.Context(), filters)
	if err != nil {
		h.handleReportError(w, err)
		return
	}
	respondFile(w, xlsxContentType, fmt.Sprintf("ejecucion-presupuesto-%d.xlsx", filters.Year), content)
}

// ListArchives godoc
// @Summary List archived reports
// @Tags Reports
// @Produce json
// @Param kind query string false "Report kind" Enums(budget_execution)
// @Param limit query int false "Maximum rows" default(50)
// @Success 200 {array} domain.ReportArchiveDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/archives [get]
func (h *ReportHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > maxPageSize {
		limit = 50
	}
	archives, err := h.reportService.ListArchives(r.Context(), r.URL.Query().Get("kind"), limit)
	if err != nil {
		h.handleReportError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, archives)
}

// CreateArchive godoc
// @Summary Archive the budget execution workbook now
// @Description Runs the same archive the scheduler runs, for the given year, and applies retention.
// @Tags Reports
// @Produce json
// @Param year query int false "Fiscal year (defaults to the current year)"
// @Success 201 {object} domain.ReportArchiveDTO
// @Failure 400 {object} domain.APIError
// @Failure 503 {object} domain.APIError "Storage not configured"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/archives [post]
func (h *ReportHandler) CreateArchive(w http.ResponseWriter, r *http.Request) {
	year, err := parseIntQuery(r, "year")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	y := time.Now().UTC().Year()
	if year != nil {
		y = *year
	}
	archive, err := h.reportService.ArchiveBudgetExecution(r.Context(), y, h.archiveRetention)
	if err != nil {
		h.handleReportError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, archive)
}

// DownloadArchive godoc
// @Summary Download an archived report
// @Tags Reports
// @Produce application/octet-stream
// @Param id path string true "Archive ID"
// @Success 200 {file} file
// @Failure 404 {object} domain.APIError
// @Failure 503 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/archives/{id}/download [get]
func (h *ReportHandler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "archive")
	if !ok {
		return
	}
	archive, rc, err := h.reportService.OpenArchive(r.Context(), id)
	if err != nil {
		h.handleReportError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", archive.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Name))
	if archive.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(archive.SizeBytes, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("archive download interrupted", zap.String("archive_id", id.String()), zap.Error(err))
	}
}

func (h *ReportHandler) handleReportError(w http.ResponseWriter, err error) {
	if handleCommonError(w, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrReportArchiveNotFound),
		errors.Is(err, service.ErrQuoteNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondInternalError(w, h.logger, "report handler error", err)
	}
}
