package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct {
	orgService service.OrganizationService
}

func NewOrganizationHandler(orgService service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

func (h *OrganizationHandler) RegisterRoutes(router *gin.RouterGroup) {
	schools := router.Group("/schools")
	{
		schools.GET("", middleware.RequirePermission("staff.read"), h.ListSchools)
		schools.POST("", middleware.RequirePermission("organization.manage"), h.CreateSchool)
		schools.PUT("/:id", middleware.RequirePermission("organization.manage"), h.UpdateSchool)
		schools.DELETE("/:id", middleware.RequirePermission("organization.manage"), h.DeleteSchool)
	}

	departments := router.Group("/departments")
	{
		departments.GET("", middleware.RequirePermission("staff.read"), h.ListDepartments)
		departments.GET("/:id", middleware.RequirePermission("staff.read"), h.GetDepartment)
		departments.POST("", middleware.RequirePermission("organization.manage"), h.CreateDepartment)
		departments.PUT("/:id", middleware.RequirePermission("organization.manage"), h.UpdateDepartment)
		departments.DELETE("/:id", middleware.RequirePermission("organization.manage"), h.DeleteDepartment)
	}

	// Separate prefix: gin does not allow a static segment next to :id
	router.POST("/organization-import", middleware.RequirePermission("organization.manage"), h.ImportOrganization)
}

// CreateSchool registers a new school
// @Summary      Create school
// @Tags         organization
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SchoolRequest  true  "School Payload"
// @Success      201      {object}  response.Response{data=model.School}
// @Failure      400      {object}  response.Response
// @Router       /schools [post]
func (h *OrganizationHandler) CreateSchool(c *gin.Context) {
	var req service.SchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	school, err := h.orgService.CreateSchool(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, school))
}

// ListSchools returns all schools
// @Summary      List schools
// @Tags         organization
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.School}
// @Failure      500  {object}  response.Response
// @Router       /schools [get]
func (h *OrganizationHandler) ListSchools(c *gin.Context) {
	schools, err := h.orgService.ListSchools(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch schools"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, schools))
}

// UpdateSchool updates a school's name or code
// @Summary      Update school
// @Tags         organization
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "School ID"
// @Param        payload  body      service.SchoolRequest  true  "School Payload"
// @Success      200      {object}  response.Response{data=model.School}
// @Failure      400      {object}  response.Response
// @Router       /schools/{id} [put]
func (h *OrganizationHandler) UpdateSchool(c *gin.Context) {
	id := c.Param("id")
	var req service.SchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	school, err := h.orgService.UpdateSchool(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, school))
}

// DeleteSchool removes a school
// @Summary      Delete school
// @Tags         organization
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "School ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /schools/{id} [delete]
func (h *OrganizationHandler) DeleteSchool(c *gin.Context) {
	id := c.Param("id")

	if err := h.orgService.DeleteSchool(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "School deleted successfully"))
}

// CreateDepartment registers a new department under a school
// @Summary      Create department
// @Tags         organization
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.DepartmentRequest  true  "Department Payload"
// @Success      201      {object}  response.Response{data=model.Department}
// @Failure      400      {object}  response.Response
// @Router       /departments [post]
func (h *OrganizationHandler) CreateDepartment(c *gin.Context) {
	var req service.DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	dept, err := h.orgService.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, dept))
}

// GetDepartment returns one department
// @Summary      Get department by ID
// @Tags         organization
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  response.Response{data=model.Department}
// @Failure      404  {object}  response.Response
// @Router       /departments/{id} [get]
func (h *OrganizationHandler) GetDepartment(c *gin.Context) {
	id := c.Param("id")

	dept, err := h.orgService.GetDepartment(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dept))
}

// ListDepartments returns all departments
// @Summary      List departments
// @Tags         organization
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Department}
// @Failure      500  {object}  response.Response
// @Router       /departments [get]
func (h *OrganizationHandler) ListDepartments(c *gin.Context) {
	depts, err := h.orgService.ListDepartments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch departments"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, depts))
}

// UpdateDepartment updates a department
// @Summary      Update department
// @Tags         organization
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Department ID"
// @Param        payload  body      service.DepartmentRequest  true  "Department Payload"
// @Success      200      {object}  response.Response{data=model.Department}
// @Failure      400      {object}  response.Response
// @Router       /departments/{id} [put]
func (h *OrganizationHandler) UpdateDepartment(c *gin.Context) {
	id := c.Param("id")
	var req service.DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	dept, err := h.orgService.UpdateDepartment(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dept))
}

// ImportOrganization bulk-loads schools and departments from a CSV upload
// @Summary      Import schools and departments from CSV
// @Description  Rows are typed by a kind column (school or department); bad rows are skipped and reported
// @Tags         organization
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "CSV file (kind,code,name,school_code,department_type)"
// @Success      200   {object}  response.Response{data=service.ImportResult}
// @Failure      400   {object}  response.Response
// @Router       /organization-import [post]
func (h *OrganizationHandler) ImportOrganization(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "CSV file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to open uploaded file"))
		return
	}
	defer file.Close()

	result, err := h.orgService.ImportOrganizationCSV(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteDepartment removes a department
// @Summary      Delete department
// @Tags         organization
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /departments/{id} [delete]
func (h *OrganizationHandler) DeleteDepartment(c *gin.Context) {
	id := c.Param("id")

	if err := h.orgService.DeleteDepartment(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Department deleted successfully"))
}
