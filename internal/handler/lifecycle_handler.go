package handler

import (
	"net/http"
	"strconv"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type LifecycleHandler struct {
	lifecycleService service.LifecycleService
}

func NewLifecycleHandler(lifecycleService service.LifecycleService) *LifecycleHandler {
	return &LifecycleHandler{lifecycleService: lifecycleService}
}

func (h *LifecycleHandler) RegisterRoutes(router *gin.RouterGroup) {
	retirements := router.Group("/retirements")
	{
		retirements.GET("", middleware.RequirePermission("lifecycle.manage"), h.ListRetirements)
		retirements.GET("/due", middleware.RequirePermission("lifecycle.manage"), h.ListRetirementsDue)
		retirements.POST("", middleware.RequirePermission("lifecycle.manage"), h.ProcessRetirement)
	}

	bereavements := router.Group("/bereavements")
	{
		bereavements.GET("", middleware.RequirePermission("lifecycle.manage"), h.ListBereavements)
		bereavements.POST("", middleware.RequirePermission("lifecycle.manage"), h.RecordBereavement)
	}

	balances := router.Group("/leave-balances")
	{
		balances.GET("", middleware.RequirePermission("workflow.read"), h.GetLeaveBalance)
		balances.PUT("", middleware.RequirePermission("lifecycle.manage"), h.SetLeaveBalance)
	}
}

// ProcessRetirement retires a staff member
// @Summary      Process retirement
// @Description  Records the retirement and moves the staff member out of active service
// @Tags         lifecycle
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ProcessRetirementRequest  true  "Retirement Payload"
// @Success      201      {object}  response.Response{data=model.Retirement}
// @Failure      400      {object}  response.Response
// @Router       /retirements [post]
func (h *LifecycleHandler) ProcessRetirement(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	var req service.ProcessRetirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	retirement, err := h.lifecycleService.ProcessRetirement(c.Request.Context(), userIDStr, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, retirement))
}

// ListRetirements returns processed retirements
// @Summary      List retirements
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /retirements [get]
func (h *LifecycleHandler) ListRetirements(c *gin.Context) {
	p := pagination.Parse(c)

	retirements, total, err := h.lifecycleService.ListRetirements(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch retirements"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"retirements": retirements,
		"total":       total,
		"page":        p.Page,
		"limit":       p.Limit,
	}))
}

// ListRetirementsDue lists active staff reaching retirement within a horizon
// @Summary      List retirements due
// @Description  Lists active staff whose retirement date falls within the given number of days (default 180)
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        days  query     int  false  "Horizon in days (default 180)"
// @Success      200   {object}  response.Response{data=[]service.RetirementDueEntry}
// @Failure      500   {object}  response.Response
// @Router       /retirements/due [get]
func (h *LifecycleHandler) ListRetirementsDue(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "180"))
	if days <= 0 {
		days = 180
	}

	entries, err := h.lifecycleService.ListRetirementsDue(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch due retirements"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}

// RecordBereavement records a bereavement notice for a staff member
// @Summary      Record bereavement
// @Tags         lifecycle
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.RecordBereavementRequest  true  "Bereavement Payload"
// @Success      201      {object}  response.Response{data=model.Bereavement}
// @Failure      400      {object}  response.Response
// @Router       /bereavements [post]
func (h *LifecycleHandler) RecordBereavement(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	var req service.RecordBereavementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	bereavement, err := h.lifecycleService.RecordBereavement(c.Request.Context(), userIDStr, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, bereavement))
}

// SetLeaveBalance provisions a staff member's entitlements for a year
// @Summary      Set leave balance
// @Description  Creates or replaces the leave entitlement row for a staff member and year
// @Tags         lifecycle
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SetLeaveBalanceRequest  true  "Leave Balance Payload"
// @Success      200      {object}  response.Response{data=model.LeaveBalance}
// @Failure      400      {object}  response.Response
// @Router       /leave-balances [put]
func (h *LifecycleHandler) SetLeaveBalance(c *gin.Context) {
	var req service.SetLeaveBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	balance, err := h.lifecycleService.SetLeaveBalance(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, balance))
}

// GetLeaveBalance returns the entitlements remaining for a staff member
// @Summary      Get leave balance
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        staff_id  query     string  true   "Staff ID"
// @Param        year      query     int     false  "Year (default current)"
// @Success      200       {object}  response.Response{data=model.LeaveBalance}
// @Failure      404       {object}  response.Response
// @Router       /leave-balances [get]
func (h *LifecycleHandler) GetLeaveBalance(c *gin.Context) {
	staffID := c.Query("staff_id")
	if staffID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "staff_id is required"))
		return
	}
	year, _ := strconv.Atoi(c.Query("year"))

	balance, err := h.lifecycleService.GetLeaveBalance(c.Request.Context(), staffID, year)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, balance))
}

// ListBereavements returns recorded bereavements
// @Summary      List bereavements
// @Tags         lifecycle
// @Produce      json
// @Security     BearerAuth
// @Param        staff_id  query     string  false  "Filter by staff ID"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /bereavements [get]
func (h *LifecycleHandler) ListBereavements(c *gin.Context) {
	p := pagination.Parse(c)

	bereavements, total, err := h.lifecycleService.ListBereavements(c.Request.Context(), c.Query("staff_id"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch bereavements"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"bereavements": bereavements,
		"total":        total,
		"page":         p.Page,
		"limit":        p.Limit,
	}))
}
