package handler

import (
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type WorkflowHandler struct {
	workflowService service.WorkflowService
}

func NewWorkflowHandler(workflowService service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService}
}

func (h *WorkflowHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	{
		requests.POST("", middleware.RequirePermission("workflow.submit"), h.SubmitRequest)
		requests.GET("", middleware.RequirePermission("workflow.read"), h.ListRequests)
		requests.GET("/:id", middleware.RequirePermission("workflow.read"), h.GetRequest)
		requests.PUT("/:id/approve", middleware.RequirePermission("workflow.read"), h.ApproveRequest)
		requests.PUT("/:id/reject", middleware.RequirePermission("workflow.read"), h.RejectRequest)
	}
}

// workflowStatus maps a decision error to its HTTP status. Authorization is
// resolved per request inside the service, not by route permissions alone, so
// the mapping lives here rather than in middleware.
func workflowStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrMissingReason):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSideEffect):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// SubmitRequest files a new leave or promotion application
// @Summary      Submit a workflow request
// @Description  Files a leave or promotion application; it starts in the pending state
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitRequestDTO  true  "Request Payload"
// @Success      201      {object}  response.Response{data=service.WorkflowRequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /requests [post]
func (h *WorkflowHandler) SubmitRequest(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	var req service.SubmitRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.workflowService.Submit(c.Request.Context(), userIDStr, req)
	if err != nil {
		status := workflowStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ApproveRequest advances a request through the approval stages
// @Summary      Approve a workflow request
// @Description  Supervisor sign-off from pending, HR approval from supervisor_approved, or a fast-path approval straight from pending
// @Tags         workflow
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.WorkflowRequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /requests/{id}/approve [put]
func (h *WorkflowHandler) ApproveRequest(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	result, err := h.workflowService.Decide(c.Request.Context(), id, userIDStr, model.ActionApprove, "")
	if err != nil {
		status := workflowStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

type rejectRequestDTO struct {
	Reason string `json:"reason"`
}

// RejectRequest rejects a request with a mandatory reason
// @Summary      Reject a workflow request
// @Description  HR rejection from any non-terminal state; a reason is required
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string            true  "Request ID"
// @Param        payload  body      rejectRequestDTO  true  "Rejection Reason"
// @Success      200      {object}  response.Response{data=service.WorkflowRequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /requests/{id}/reject [put]
func (h *WorkflowHandler) RejectRequest(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	var req rejectRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Missing body falls through to the missing-reason check
		req.Reason = ""
	}

	result, err := h.workflowService.Decide(c.Request.Context(), id, userIDStr, model.ActionReject, req.Reason)
	if err != nil {
		status := workflowStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetRequest returns one request with its decision records
// @Summary      Get a workflow request
// @Tags         workflow
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.WorkflowRequestResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /requests/{id} [get]
func (h *WorkflowHandler) GetRequest(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	result, err := h.workflowService.Get(c.Request.Context(), id, userIDStr)
	if err != nil {
		status := workflowStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListRequests returns requests the caller may see, optionally filtered
// @Summary      List workflow requests
// @Description  HR sees all requests; other callers only their own
// @Tags         workflow
// @Produce      json
// @Security     BearerAuth
// @Param        staff_id  query     string  false  "Filter by staff ID"
// @Param        state     query     string  false  "Filter by state"
// @Param        kind      query     string  false  "Filter by kind (leave|promotion)"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /requests [get]
func (h *WorkflowHandler) ListRequests(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	p := pagination.Parse(c)
	filter := service.WorkflowListFilter{
		StaffID: c.Query("staff_id"),
		State:   c.Query("state"),
		Kind:    c.Query("kind"),
		Page:    p.Page,
		Limit:   p.Limit,
	}

	requests, total, err := h.workflowService.List(c.Request.Context(), userIDStr, filter)
	if err != nil {
		status := workflowStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    total,
		"page":     p.Page,
		"limit":    p.Limit,
	}))
}
