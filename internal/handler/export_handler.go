package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/placement-api/internal/service"
	"github.com/edupath/placement-api/pkg/response"
)

// ExportHandler serves downloadable statements and reports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// LedgerStatement godoc
// @Summary Download a student's ledger statement
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /students/{id}/ledger/export [get]
func (h *ExportHandler) LedgerStatement(c *gin.Context) {
	studentID := c.Param("id")

	if c.DefaultQuery("format", "csv") == "pdf" {
		data, err := h.service.LedgerStatementPDF(c.Request.Context(), studentID)
		if err != nil {
			response.Error(c, err)
			return
		}
		serveAttachment(c, data, "application/pdf", fmt.Sprintf("ledger-%s.pdf", studentID))
		return
	}

	data, err := h.service.LedgerStatementCSV(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveAttachment(c, data, "text/csv", fmt.Sprintf("ledger-%s.csv", studentID))
}

// CommissionReport godoc
// @Summary Download a staff member's commission report
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Staff ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /staff/{id}/commissions/export [get]
func (h *ExportHandler) CommissionReport(c *gin.Context) {
	staffID := c.Param("id")

	if c.DefaultQuery("format", "csv") == "pdf" {
		data, err := h.service.CommissionReportPDF(c.Request.Context(), staffID)
		if err != nil {
			response.Error(c, err)
			return
		}
		serveAttachment(c, data, "application/pdf", fmt.Sprintf("commissions-%s.pdf", staffID))
		return
	}

	data, err := h.service.CommissionReportCSV(c.Request.Context(), staffID)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveAttachment(c, data, "text/csv", fmt.Sprintf("commissions-%s.csv", staffID))
}

func serveAttachment(c *gin.Context, data []byte, mimeType, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, mimeType, data)
}
