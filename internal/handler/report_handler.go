package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	reports.Use(middleware.RequirePermission("reports.export"))
	{
		reports.GET("/staff.csv", h.ExportStaffCSV)
		reports.GET("/payroll/:periodId", h.ExportPayrollXLSX)
	}
}

// ExportStaffCSV streams the staff directory as a CSV download
// @Summary      Export staff CSV
// @Description  Downloads the staff directory as CSV; the columns match the import format
// @Tags         reports
// @Produce      text/csv
// @Security     BearerAuth
// @Param        status         query  string  false  "Filter by status"
// @Param        department_id  query  string  false  "Filter by department"
// @Param        staff_type     query  string  false  "Filter by staff type"
// @Success      200  {string}  string  "CSV file"
// @Failure      500  {object}  response.Response
// @Router       /reports/staff.csv [get]
func (h *ReportHandler) ExportStaffCSV(c *gin.Context) {
	filter := service.StaffListFilter{
		Status:       c.Query("status"),
		DepartmentID: c.Query("department_id"),
		StaffType:    c.Query("staff_type"),
	}

	filename := fmt.Sprintf("staff_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "text/csv")

	if err := h.reportService.ExportStaffCSV(c.Request.Context(), filter, c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to export staff: "+err.Error()))
		return
	}
}

// ExportPayrollXLSX streams a period's payroll report as an Excel download
// @Summary      Export payroll XLSX
// @Description  Downloads all payslips of a payroll period as an Excel workbook
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        periodId  path      string  true  "Payroll Period ID"
// @Success      200       {string}  string  "XLSX file"
// @Failure      400       {object}  response.Response
// @Router       /reports/payroll/{periodId} [get]
func (h *ReportHandler) ExportPayrollXLSX(c *gin.Context) {
	// Accept both a bare ID and an id.xlsx style path
	periodID := strings.TrimSuffix(c.Param("periodId"), ".xlsx")

	filename := fmt.Sprintf("payroll_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := h.reportService.ExportPayrollXLSX(c.Request.Context(), periodID, c.Writer); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to export payroll: "+err.Error()))
		return
	}
}
