package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/reports"
	"site_stores_backend/internal/services"
	"site_stores_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const formatXLSX = "xlsx"

// ReportHandler serves the read-only inventory reports as JSON or .xlsx.
type ReportHandler struct {
	reportService services.ReportService
	now           func() time.Time
}

// NewReportHandler creates a new ReportHandler. now dates the export file names.
func NewReportHandler(rs services.ReportService, now func() time.Time) *ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportHandler{reportService: rs, now: now}
}

// GetStockSummary handles GET /reports/stock-summary?site_id=&format=xlsx
func (h *ReportHandler) GetStockSummary(c *gin.Context) {
	siteID, ok := h.reportSite(c)
	if !ok {
		return
	}
	rows, err := h.reportService.GetStockSummary(c.Request.Context(), siteID)
	if err != nil {
		respondServiceError(c, err, "GetStockSummary")
		return
	}
	if c.Query("format") == formatXLSX {
		h.sendWorkbook(c, "stock_summary", func(w io.Writer) error {
			return reports.WriteStockSummary(w, rows)
		})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetLowStockItems handles GET /reports/low-stock?site_id=
func (h *ReportHandler) GetLowStockItems(c *gin.Context) {
	siteID, ok := h.reportSite(c)
	if !ok {
		return
	}
	rows, err := h.reportService.GetLowStockItems(c.Request.Context(), siteID)
	if err != nil {
		respondServiceError(c, err, "GetLowStockItems")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetTransactionHistory handles GET /reports/transactions with optional site_id,
// material_id, type, start_date, end_date (YYYY-MM-DD, inclusive) and format.
func (h *ReportHandler) GetTransactionHistory(c *gin.Context) {
	siteID, ok := h.reportSite(c)
	if !ok {
		return
	}
	filters := models.TransactionFilters{SiteID: siteID}
	if filters.MaterialID, ok = queryInt64(c, "material_id"); !ok {
		return
	}
	if raw := c.Query("type"); raw != "" {
		t := models.TransactionType(raw)
		switch t {
		case models.TransactionReceive, models.TransactionIssue, models.TransactionAdjustment:
			filters.Type = &t
		default:
			utils.RespondValidationFailed(c, "type must be one of receive, issue, adjustment")
			return
		}
	}
	var err error
	if filters.Start, err = utils.OptionalDate(c.Query("start_date"), false); err != nil {
		utils.RespondValidationFailed(c, "start_date must be YYYY-MM-DD")
		return
	}
	if filters.End, err = utils.OptionalDate(c.Query("end_date"), true); err != nil {
		utils.RespondValidationFailed(c, "end_date must be YYYY-MM-DD")
		return
	}

	rows, err := h.reportService.GetTransactionHistory(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetTransactionHistory")
		return
	}
	if c.Query("format") == formatXLSX {
		h.sendWorkbook(c, "transactions", func(w io.Writer) error {
			return reports.WriteTransactionHistory(w, rows)
		})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetDailyIssues handles GET /reports/daily-issues?site_id=&date=YYYY-MM-DD.
// date defaults to today.
func (h *ReportHandler) GetDailyIssues(c *gin.Context) {
	siteID, ok := h.reportSite(c)
	if !ok {
		return
	}
	if siteID == nil {
		utils.RespondValidationFailed(c, "site_id is required")
		return
	}
	day := h.now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(utils.DateLayout, raw)
		if err != nil {
			utils.RespondValidationFailed(c, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	rows, err := h.reportService.GetDailyIssues(c.Request.Context(), *siteID, day)
	if err != nil {
		respondServiceError(c, err, "GetDailyIssues")
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format(utils.DateLayout), "issues": rows})
}

func (h *ReportHandler) reportSite(c *gin.Context) (*int64, bool) {
	actor, ok := requireActor(c)
	if !ok {
		return nil, false
	}
	requested, ok := queryInt64(c, "site_id")
	if !ok {
		return nil, false
	}
	return siteScope(c, actor, requested)
}

func (h *ReportHandler) sendWorkbook(c *gin.Context, name string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		utils.LogError(err, "Failed to render report workbook", map[string]interface{}{"report": name})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build report", ""))
		return
	}
	filename := fmt.Sprintf("%s_%s.xlsx", name, h.now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Data(http.StatusOK, reports.ContentTypeXLSX, buf.Bytes())
}
