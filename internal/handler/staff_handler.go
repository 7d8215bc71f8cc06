package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StaffHandler struct {
	staffService service.StaffService
}

func NewStaffHandler(staffService service.StaffService) *StaffHandler {
	return &StaffHandler{staffService: staffService}
}

func (h *StaffHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := router.Group("/staff")
	{
		staff.GET("", middleware.RequirePermission("staff.read"), h.ListStaff)
		staff.GET("/:id", middleware.RequirePermission("staff.read"), h.GetStaffByID)
		staff.POST("", middleware.RequirePermission("staff.write"), h.CreateStaff)
		staff.PUT("/:id", middleware.RequirePermission("staff.write"), h.UpdateStaff)
		staff.DELETE("/:id", middleware.RequirePermission("staff.delete"), h.DeleteStaff)
	}

	// Separate prefixes: gin does not allow a static segment next to :id
	router.GET("/staff-number/:staffNumber", middleware.RequirePermission("staff.read"), h.GetStaffByNumber)
	router.POST("/staff-import", middleware.RequirePermission("staff.import"), h.ImportStaff)
}

// CreateStaff registers a new staff member in the directory
// @Summary      Create staff member
// @Description  Registers a new staff member with their employment details
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateStaffRequest  true  "Staff Payload"
// @Success      201      {object}  response.Response{data=model.Staff}
// @Failure      400      {object}  response.Response
// @Router       /staff [post]
func (h *StaffHandler) CreateStaff(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	var req service.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	member, err := h.staffService.CreateStaff(c.Request.Context(), userIDStr, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, member))
}

// ListStaff handles GET /staff with filters and pagination
// @Summary      List staff
// @Description  Retrieves a paginated list of staff members, optionally filtered
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        status         query     string  false  "Filter by status"
// @Param        department_id  query     string  false  "Filter by department"
// @Param        staff_type     query     string  false  "Filter by staff type"
// @Param        page           query     int     false  "Page number (default 1)"
// @Param        limit          query     int     false  "Items per page (default 20)"
// @Success      200            {object}  response.Response{data=object}
// @Failure      500            {object}  response.Response
// @Router       /staff [get]
func (h *StaffHandler) ListStaff(c *gin.Context) {
	p := pagination.Parse(c)
	filter := service.StaffListFilter{
		Status:       c.Query("status"),
		DepartmentID: c.Query("department_id"),
		StaffType:    c.Query("staff_type"),
		Page:         p.Page,
		Limit:        p.Limit,
	}

	members, total, err := h.staffService.ListStaff(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch staff"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"staff": members,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// GetStaffByID handles GET /staff/:id
// @Summary      Get staff member by ID
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Staff ID"
// @Success      200  {object}  response.Response{data=model.Staff}
// @Failure      404  {object}  response.Response
// @Router       /staff/{id} [get]
func (h *StaffHandler) GetStaffByID(c *gin.Context) {
	id := c.Param("id")

	member, err := h.staffService.GetStaffByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}

// GetStaffByNumber handles GET /staff-number/:staffNumber
// @Summary      Get staff member by staff number
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        staffNumber  path      string  true  "Staff Number"
// @Success      200          {object}  response.Response{data=model.Staff}
// @Failure      404          {object}  response.Response
// @Router       /staff-number/{staffNumber} [get]
func (h *StaffHandler) GetStaffByNumber(c *gin.Context) {
	staffNumber := c.Param("staffNumber")

	member, err := h.staffService.GetStaffByNumber(c.Request.Context(), staffNumber)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}

// UpdateStaff handles PUT /staff/:id
// @Summary      Update staff member
// @Description  Updates contact and administrative details; position, grade and status are changed through the promotion and lifecycle flows
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Staff ID"
// @Param        payload  body      service.UpdateStaffRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=model.Staff}
// @Failure      400      {object}  response.Response
// @Router       /staff/{id} [put]
func (h *StaffHandler) UpdateStaff(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	id := c.Param("id")

	var req service.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	member, err := h.staffService.UpdateStaff(c.Request.Context(), userIDStr, id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}

// DeleteStaff handles DELETE /staff/:id
// @Summary      Delete staff member
// @Description  Soft deletes a staff record
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Staff ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /staff/{id} [delete]
func (h *StaffHandler) DeleteStaff(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	id := c.Param("id")

	if err := h.staffService.DeleteStaff(c.Request.Context(), userIDStr, id); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Staff member deleted successfully"))
}

// ImportStaff handles POST /staff/import with a multipart CSV upload
// @Summary      Import staff from CSV
// @Description  Bulk imports staff records from an uploaded CSV file; invalid rows are skipped and reported
// @Tags         staff
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "CSV file"
// @Success      200   {object}  response.Response{data=service.ImportResult}
// @Failure      400   {object}  response.Response
// @Router       /staff-import [post]
func (h *StaffHandler) ImportStaff(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file upload"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unable to read uploaded file"))
		return
	}
	defer file.Close()

	result, err := h.staffService.ImportStaffCSV(c.Request.Context(), userIDStr, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
