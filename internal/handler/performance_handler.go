package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PerformanceHandler struct {
	perfService service.PerformanceService
}

func NewPerformanceHandler(perfService service.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{perfService: perfService}
}

func (h *PerformanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	reviews := router.Group("/reviews")
	{
		reviews.GET("", middleware.RequirePermission("performance.read"), h.ListReviews)
		reviews.GET("/:id", middleware.RequirePermission("performance.read"), h.GetReview)
		reviews.POST("", middleware.RequirePermission("performance.manage"), h.ScheduleReview)
		reviews.PUT("/:id/complete", middleware.RequirePermission("performance.manage"), h.CompleteReview)
		reviews.PUT("/:id/cancel", middleware.RequirePermission("performance.manage"), h.CancelReview)

		reviews.GET("/:id/goals", middleware.RequirePermission("performance.read"), h.ListGoals)
		reviews.POST("/:id/goals", middleware.RequirePermission("performance.manage"), h.AddGoal)
	}

	router.PUT("/goals/:id", middleware.RequirePermission("performance.manage"), h.UpdateGoal)
}

// ScheduleReview books a performance review for a staff member
// @Summary      Schedule performance review
// @Tags         performance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ScheduleReviewRequest  true  "Review Payload"
// @Success      201      {object}  response.Response{data=model.PerformanceReview}
// @Failure      400      {object}  response.Response
// @Router       /reviews [post]
func (h *PerformanceHandler) ScheduleReview(c *gin.Context) {
	var req service.ScheduleReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	review, err := h.perfService.ScheduleReview(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, review))
}

// GetReview returns one review with its goals preloaded
// @Summary      Get performance review
// @Tags         performance
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Review ID"
// @Success      200  {object}  response.Response{data=model.PerformanceReview}
// @Failure      404  {object}  response.Response
// @Router       /reviews/{id} [get]
func (h *PerformanceHandler) GetReview(c *gin.Context) {
	id := c.Param("id")

	review, err := h.perfService.GetReview(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, review))
}

// ListReviews returns reviews with optional filters
// @Summary      List performance reviews
// @Tags         performance
// @Produce      json
// @Security     BearerAuth
// @Param        staff_id  query     string  false  "Filter by staff ID"
// @Param        status    query     string  false  "Filter by status"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /reviews [get]
func (h *PerformanceHandler) ListReviews(c *gin.Context) {
	p := pagination.Parse(c)

	reviews, total, err := h.perfService.ListReviews(c.Request.Context(), c.Query("staff_id"), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch reviews"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

// CompleteReview finalizes a scheduled review with a rating
// @Summary      Complete performance review
// @Tags         performance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Review ID"
// @Param        payload  body      service.CompleteReviewRequest  true  "Completion Payload"
// @Success      200      {object}  response.Response{data=model.PerformanceReview}
// @Failure      400      {object}  response.Response
// @Router       /reviews/{id}/complete [put]
func (h *PerformanceHandler) CompleteReview(c *gin.Context) {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	id := c.Param("id")

	var req service.CompleteReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	review, err := h.perfService.CompleteReview(c.Request.Context(), id, userIDStr, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, review))
}

// CancelReview cancels a scheduled review
// @Summary      Cancel performance review
// @Tags         performance
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Review ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /reviews/{id}/cancel [put]
func (h *PerformanceHandler) CancelReview(c *gin.Context) {
	id := c.Param("id")

	if err := h.perfService.CancelReview(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Review cancelled"))
}

// AddGoal attaches a goal to a review
// @Summary      Add goal to review
// @Tags         performance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Review ID"
// @Param        payload  body      service.CreateGoalRequest  true  "Goal Payload"
// @Success      201      {object}  response.Response{data=model.PerformanceGoal}
// @Failure      400      {object}  response.Response
// @Router       /reviews/{id}/goals [post]
func (h *PerformanceHandler) AddGoal(c *gin.Context) {
	id := c.Param("id")

	var req service.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	goal, err := h.perfService.AddGoal(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, goal))
}

// ListGoals returns the goals of a review
// @Summary      List goals for a review
// @Tags         performance
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Review ID"
// @Success      200  {object}  response.Response{data=[]model.PerformanceGoal}
// @Failure      400  {object}  response.Response
// @Router       /reviews/{id}/goals [get]
func (h *PerformanceHandler) ListGoals(c *gin.Context) {
	id := c.Param("id")

	goals, err := h.perfService.ListGoals(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, goals))
}

// UpdateGoal updates a goal's progress or status
// @Summary      Update goal
// @Tags         performance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Goal ID"
// @Param        payload  body      service.UpdateGoalRequest  true  "Goal Update Payload"
// @Success      200      {object}  response.Response{data=model.PerformanceGoal}
// @Failure      400      {object}  response.Response
// @Router       /goals/{id} [put]
func (h *PerformanceHandler) UpdateGoal(c *gin.Context) {
	id := c.Param("id")

	var req service.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	goal, err := h.perfService.UpdateGoal(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, goal))
}
