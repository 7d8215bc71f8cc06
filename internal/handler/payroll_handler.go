package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PayrollHandler struct {
	payrollService service.PayrollService
}

func NewPayrollHandler(payrollService service.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrollService: payrollService}
}

func (h *PayrollHandler) RegisterRoutes(router *gin.RouterGroup) {
	payroll := router.Group("/payroll")
	{
		payroll.GET("/structures", middleware.RequirePermission("payroll.read"), h.ListSalaryStructures)
		payroll.PUT("/structures", middleware.RequirePermission("payroll.manage"), h.UpsertSalaryStructure)

		payroll.GET("/periods", middleware.RequirePermission("payroll.read"), h.ListPeriods)
		payroll.POST("/periods", middleware.RequirePermission("payroll.manage"), h.CreatePeriod)
		payroll.POST("/periods/:id/process", middleware.RequirePermission("payroll.process"), h.ProcessPeriod)
		payroll.GET("/periods/:id/payslips", middleware.RequirePermission("payroll.read"), h.ListPayslipsForPeriod)

		payroll.GET("/staff/:staffId/payslips", middleware.RequirePermission("payroll.read"), h.ListPayslipsForStaff)

		payroll.POST("/loans", middleware.RequirePermission("payroll.manage"), h.CreateLoan)
		payroll.GET("/loans", middleware.RequirePermission("payroll.read"), h.ListLoans)
	}
}

// UpsertSalaryStructure creates or replaces a pay scale entry
// @Summary      Upsert salary structure
// @Description  Creates or replaces the salary structure for a category, grade and employment type
// @Tags         payroll
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SalaryStructureRequest  true  "Structure Payload"
// @Success      200      {object}  response.Response{data=model.SalaryStructure}
// @Failure      400      {object}  response.Response
// @Router       /payroll/structures [put]
func (h *PayrollHandler) UpsertSalaryStructure(c *gin.Context) {
	var req service.SalaryStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	structure, err := h.payrollService.UpsertSalaryStructure(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, structure))
}

// ListSalaryStructures returns all pay scale entries
// @Summary      List salary structures
// @Tags         payroll
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.SalaryStructure}
// @Failure      500  {object}  response.Response
// @Router       /payroll/structures [get]
func (h *PayrollHandler) ListSalaryStructures(c *gin.Context) {
	structures, err := h.payrollService.ListSalaryStructures(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch salary structures"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, structures))
}

// CreatePeriod opens a new payroll period
// @Summary      Create payroll period
// @Tags         payroll
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePeriodRequest  true  "Period Payload"
// @Success      201      {object}  response.Response{data=model.PayrollPeriod}
// @Failure      400      {object}  response.Response
// @Router       /payroll/periods [post]
func (h *PayrollHandler) CreatePeriod(c *gin.Context) {
	var req service.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	period, err := h.payrollService.CreatePeriod(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, period))
}

// ListPeriods returns all payroll periods
// @Summary      List payroll periods
// @Tags         payroll
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.PayrollPeriod}
// @Failure      500  {object}  response.Response
// @Router       /payroll/periods [get]
func (h *PayrollHandler) ListPeriods(c *gin.Context) {
	periods, err := h.payrollService.ListPeriods(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch payroll periods"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, periods))
}

// ProcessPeriod runs payroll for a period
// @Summary      Process payroll period
// @Description  Generates payslips for all active staff with a matching salary structure; staff without one are skipped and reported
// @Tags         payroll
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Period ID"
// @Success      200  {object}  response.Response{data=service.ProcessPeriodResult}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /payroll/periods/{id}/process [post]
func (h *PayrollHandler) ProcessPeriod(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	id := c.Param("id")

	result, err := h.payrollService.ProcessPeriod(c.Request.Context(), id, userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListPayslipsForPeriod returns all payslips generated for a period
// @Summary      List payslips for a period
// @Tags         payroll
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Period ID"
// @Success      200  {object}  response.Response{data=[]model.Payslip}
// @Failure      400  {object}  response.Response
// @Router       /payroll/periods/{id}/payslips [get]
func (h *PayrollHandler) ListPayslipsForPeriod(c *gin.Context) {
	id := c.Param("id")

	payslips, err := h.payrollService.ListPayslipsForPeriod(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payslips))
}

// ListPayslipsForStaff returns a staff member's payslip history
// @Summary      List payslips for a staff member
// @Tags         payroll
// @Produce      json
// @Security     BearerAuth
// @Param        staffId  path      string  true   "Staff ID"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Items per page (default 20)"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /payroll/staff/{staffId}/payslips [get]
func (h *PayrollHandler) ListPayslipsForStaff(c *gin.Context) {
	staffID := c.Param("staffId")
	p := pagination.Parse(c)

	payslips, total, err := h.payrollService.ListPayslipsForStaff(c.Request.Context(), staffID, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"payslips": payslips,
		"total":    total,
		"page":     p.Page,
		"limit":    p.Limit,
	}))
}

// CreateLoan registers a staff loan repaid through payroll deductions
// @Summary      Create loan
// @Tags         payroll
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateLoanRequest  true  "Loan Payload"
// @Success      201      {object}  response.Response{data=model.LoanRecord}
// @Failure      400      {object}  response.Response
// @Router       /payroll/loans [post]
func (h *PayrollHandler) CreateLoan(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	var req service.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	loan, err := h.payrollService.CreateLoan(c.Request.Context(), userIDStr, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, loan))
}

// ListLoans returns loans, optionally scoped to one staff member
// @Summary      List loans
// @Tags         payroll
// @Produce      json
// @Security     BearerAuth
// @Param        staff_id  query     string  false  "Filter by staff ID"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /payroll/loans [get]
func (h *PayrollHandler) ListLoans(c *gin.Context) {
	p := pagination.Parse(c)

	loans, total, err := h.payrollService.ListLoans(c.Request.Context(), c.Query("staff_id"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch loans"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"loans": loans,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}
